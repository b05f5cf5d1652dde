package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// SheetsLedger appends ledger rows to a Google Sheets tab.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
	logger        *slog.Logger
}

var _ ports.Ledger = (*SheetsLedger)(nil)

// NewSheetsLedger authenticates with a service account credentials file.
func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID, sheet string, logger *slog.Logger) (*SheetsLedger, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsLedgerWithService(svc, spreadsheetID, sheet, logger), nil
}

// NewSheetsLedgerWithService wires an already configured service.
func NewSheetsLedgerWithService(svc *sheets.Service, spreadsheetID, sheet string, logger *slog.Logger) *SheetsLedger {
	if sheet == "" {
		sheet = "Content Ledger"
	}
	return &SheetsLedger{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, logger: logger}
}

// EnsureHeader writes the column header when the sheet is empty.
func (l *SheetsLedger) EnsureHeader(ctx context.Context) error {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.rangeA1(1, 1)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	header := make([]interface{}, 0, len(ledgerColumns))
	for _, col := range ledgerColumns {
		header = append(header, col)
	}
	return l.append(ctx, header)
}

// Append adds one row at the end of the sheet.
func (l *SheetsLedger) Append(ctx context.Context, row domain.LedgerRow) error {
	values, err := rowValues(row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, 0, len(values))
	for _, v := range values {
		cells = append(cells, sheetCell(v))
	}
	return l.append(ctx, cells)
}

func (l *SheetsLedger) append(ctx context.Context, cells []interface{}) error {
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, l.rangeA1(1, 0), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}
	return nil
}

// ListSeenIdentifiers returns every hash with at least one row other than score_failed.
func (l *SheetsLedger) ListSeenIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SeenHashes(rows), nil
}

// ListByStatus returns the latest row of every hash whose latest status is status.
func (l *SheetsLedger) ListByStatus(ctx context.Context, status domain.Status) ([]domain.LedgerRow, error) {
	rows, err := l.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterLatest(rows, status), nil
}

// listAll reads every data row. Rows edited into an unreadable shape are skipped with a warning.
func (l *SheetsLedger) listAll(ctx context.Context) ([]domain.LedgerRow, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.rangeA1(2, 0)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	rows := make([]domain.LedgerRow, 0, len(resp.Values))
	for i, cells := range resp.Values {
		row, err := decodeRow(cells)
		if err != nil {
			if l.logger != nil {
				l.logger.Warn("skip unreadable ledger row", "sheet_row", i+2, "error", err)
			}
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rangeA1 spans all ledger columns from row start; end 0 means open ended.
func (l *SheetsLedger) rangeA1(start, end int) string {
	last := string(rune('A' + len(ledgerColumns) - 1))
	if end == 0 {
		return fmt.Sprintf("'%s'!A%d:%s", l.sheet, start, last)
	}
	return fmt.Sprintf("'%s'!A%d:%s%d", l.sheet, start, last, end)
}

func sheetCell(v any) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return t
	}
}
