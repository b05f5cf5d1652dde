package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ContentEngine/internal/domain"
)

// fakeSheet stores appended rows in memory and serves them back like the Sheets API.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]interface{}
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		_, _ = w.Write([]byte(`{"spreadsheetId": "sheet-1"}`))
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "A1:X1"):
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: f.rows[:min(1, len(f.rows))]})
	case r.Method == http.MethodGet:
		var data [][]interface{}
		if len(f.rows) > 1 {
			data = f.rows[1:]
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: data})
	default:
		http.NotFound(w, r)
	}
}

func TestSheetsLedger(t *testing.T) {
	t.Parallel()

	fake := &fakeSheet{}
	server := httptest.NewServer(fake)
	defer server.Close()

	ctx := context.Background()
	svc, err := sheets.NewService(ctx, option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	l := NewSheetsLedgerWithService(svc, "sheet-1", "", nil)

	for i := 0; i < 2; i++ {
		if err := l.EnsureHeader(ctx); err != nil {
			t.Fatalf("EnsureHeader: %v", err)
		}
	}
	if len(fake.rows) != 1 || fake.rows[0][0] != "row_id" {
		t.Fatalf("expected a single header row, got %v", fake.rows)
	}

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	held := sampleRow("h1", domain.StatusHeld, base)
	failed := sampleRow("h2", domain.StatusScoreFailed, base)
	for _, row := range []domain.LedgerRow{held, failed} {
		if err := l.Append(ctx, row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	fake.rows = append(fake.rows, []interface{}{"broken"})

	seen, err := l.ListSeenIdentifiers(ctx)
	if err != nil {
		t.Fatalf("ListSeenIdentifiers: %v", err)
	}
	if _, ok := seen["h1"]; !ok || len(seen) != 1 {
		t.Fatalf("unexpected seen set %v", seen)
	}

	rows, err := l.ListByStatus(ctx, domain.StatusHeld)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(rows) != 1 || rows[0].Hash != "h1" || rows[0].Drafts == nil || *rows[0].Relevance != 8 {
		t.Fatalf("unexpected held rows %+v", rows)
	}
}
