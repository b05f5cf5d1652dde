package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"ContentEngine/internal/domain"
)

// ledgerColumns is the on-disk column order shared by every ledger backend.
var ledgerColumns = []string{
	"row_id", "item_id", "hash", "recorded_at", "platform", "status",
	"title", "source", "url", "relevance", "virality", "risk",
	"post_text", "hashtags", "blog_slug", "reviewer", "reason",
	"posted_at", "post_url", "clicks", "likes", "reposts", "comments", "drafts",
}

// rowValues flattens row in ledgerColumns order. Absent values are nil.
func rowValues(row domain.LedgerRow) ([]any, error) {
	var drafts any
	if row.Drafts != nil {
		raw, err := json.Marshal(row.Drafts)
		if err != nil {
			return nil, fmt.Errorf("encode drafts: %w", err)
		}
		drafts = string(raw)
	}

	var clicks, likes, reposts, comments any
	if e := row.Engagement; e != nil {
		clicks, likes, reposts, comments = e.Clicks, e.Likes, e.Reposts, e.Comments
	}

	return []any{
		row.RowID, row.ItemID, row.Hash, row.RecordedAt.UTC(), row.Platform, string(row.Status),
		row.Title, row.Source, row.URL, optInt(row.Relevance), optInt(row.Virality), row.Risk,
		row.PostText, row.Hashtags, row.BlogSlug, row.Reviewer, row.Reason,
		optTime(row.PostedAt), row.PostURL, clicks, likes, reposts, comments, drafts,
	}, nil
}

// decodeRow rebuilds a row from driver values or spreadsheet cells. Missing trailing cells
// are treated as empty.
func decodeRow(cells []any) (domain.LedgerRow, error) {
	cell := func(name string) any {
		for i, col := range ledgerColumns {
			if col == name && i < len(cells) {
				return cells[i]
			}
		}
		return nil
	}
	str := func(name string) string {
		return cast.ToString(cell(name))
	}

	status, err := domain.ParseStatus(str("status"))
	if err != nil {
		return domain.LedgerRow{}, err
	}
	recordedAt, err := cast.ToTimeE(cell("recorded_at"))
	if err != nil {
		return domain.LedgerRow{}, fmt.Errorf("recorded_at: %w", err)
	}

	row := domain.LedgerRow{
		RowID:      str("row_id"),
		ItemID:     str("item_id"),
		Hash:       str("hash"),
		RecordedAt: recordedAt.UTC(),
		Platform:   str("platform"),
		Status:     status,
		Title:      str("title"),
		Source:     str("source"),
		URL:        str("url"),
		Risk:       str("risk"),
		PostText:   str("post_text"),
		Hashtags:   str("hashtags"),
		BlogSlug:   str("blog_slug"),
		Reviewer:   str("reviewer"),
		Reason:     str("reason"),
		PostURL:    str("post_url"),
	}

	if row.Relevance, err = parseOptInt(cell("relevance")); err != nil {
		return domain.LedgerRow{}, fmt.Errorf("relevance: %w", err)
	}
	if row.Virality, err = parseOptInt(cell("virality")); err != nil {
		return domain.LedgerRow{}, fmt.Errorf("virality: %w", err)
	}
	if row.PostedAt, err = parseOptTime(cell("posted_at")); err != nil {
		return domain.LedgerRow{}, fmt.Errorf("posted_at: %w", err)
	}

	counts := make([]*int, 0, 4)
	for _, name := range []string{"clicks", "likes", "reposts", "comments"} {
		v, err := parseOptInt(cell(name))
		if err != nil {
			return domain.LedgerRow{}, fmt.Errorf("%s: %w", name, err)
		}
		counts = append(counts, v)
	}
	if counts[0] != nil || counts[1] != nil || counts[2] != nil || counts[3] != nil {
		row.Engagement = &domain.Engagement{
			Clicks:   deref(counts[0]),
			Likes:    deref(counts[1]),
			Reposts:  deref(counts[2]),
			Comments: deref(counts[3]),
		}
	}

	if raw := strings.TrimSpace(str("drafts")); raw != "" {
		var drafts domain.DraftBundle
		if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
			return domain.LedgerRow{}, fmt.Errorf("drafts: %w", err)
		}
		row.Drafts = &drafts
	}
	return row, nil
}

func optInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func empty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseOptInt(v any) (*int, error) {
	if empty(v) {
		return nil, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseOptTime(v any) (*time.Time, error) {
	if empty(v) {
		return nil, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
