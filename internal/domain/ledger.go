package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LedgerRow is the flattened, append-only projection of a ContentItem.
// Updates are written as new rows; the latest row per hash wins.
type LedgerRow struct {
	RowID      string
	ItemID     string
	Hash       string
	RecordedAt time.Time
	Platform   string
	Status     Status
	Title      string
	Source     string
	URL        string
	Relevance  *int
	Virality   *int
	Risk       string
	PostText   string
	Hashtags   string
	BlogSlug   string
	Reviewer   string
	Reason     string
	PostedAt   *time.Time
	PostURL    string
	Engagement *Engagement
	Drafts     *DraftBundle
}

// NewLedgerRow flattens item for the ledger. platform selects which post text is projected.
func NewLedgerRow(item *ContentItem, platform Platform, now time.Time) LedgerRow {
	row := LedgerRow{
		RowID:      uuid.NewString(),
		ItemID:     item.ID,
		Hash:       item.Article.Hash,
		RecordedAt: now,
		Platform:   string(platform),
		Status:     item.Status,
		Title:      item.Article.Title,
		Source:     item.Article.Source,
		URL:        item.Article.URL,
		Risk:       string(RiskNone),
		Reviewer:   item.Reviewer,
		Reason:     item.Reason,
		PostedAt:   item.PostedAt,
		PostURL:    item.Publish.PrimaryURL(),
	}
	if item.Score != nil {
		relevance, virality := item.Score.Relevance, item.Score.Virality
		row.Relevance = &relevance
		row.Virality = &virality
		row.Risk = item.Score.RiskSummary()
	}
	if item.Drafts != nil {
		drafts := *item.Drafts
		row.Drafts = &drafts
		row.BlogSlug = drafts.Blog.Slug
		post := drafts.LinkedIn
		if platform == PlatformX {
			post = drafts.X
		}
		row.PostText = post.Text
		row.Hashtags = strings.Join(post.Hashtags, " ")
	}
	if item.Status == StatusPosted || item.Publish.Engagement != (Engagement{}) {
		engagement := item.Publish.Engagement
		row.Engagement = &engagement
	}
	return row
}

// Item rebuilds the parts of a ContentItem that the ledger preserves.
func (r LedgerRow) Item() *ContentItem {
	item := &ContentItem{
		ID: r.ItemID,
		Article: Article{
			Title:  r.Title,
			Source: r.Source,
			URL:    r.URL,
			Hash:   r.Hash,
		},
		Status:    r.Status,
		CreatedAt: r.RecordedAt,
		PostedAt:  r.PostedAt,
		Reviewer:  r.Reviewer,
		Reason:    r.Reason,
	}
	if r.Relevance != nil && r.Virality != nil {
		item.Score = &Score{Relevance: *r.Relevance, Virality: *r.Virality}
		for _, flag := range strings.Split(r.Risk, ",") {
			if f := ParseRiskFlag(flag); f != RiskNone {
				item.Score.RiskFlags = append(item.Score.RiskFlags, f)
			}
		}
	}
	if r.Drafts != nil {
		drafts := *r.Drafts
		item.Drafts = &drafts
	}
	if r.PostURL != "" {
		item.Publish.URLs = map[Platform]string{Platform(r.Platform): r.PostURL}
	}
	if r.Engagement != nil {
		item.Publish.Engagement = *r.Engagement
	}
	return item
}

// LatestByHash keeps the most recent row for each hash, ordered by recording time.
func LatestByHash(rows []LedgerRow) []LedgerRow {
	latest := make(map[string]int, len(rows))
	for i, row := range rows {
		prev, ok := latest[row.Hash]
		if !ok || !row.RecordedAt.Before(rows[prev].RecordedAt) {
			latest[row.Hash] = i
		}
	}
	out := make([]LedgerRow, 0, len(latest))
	for _, idx := range latest {
		out = append(out, rows[idx])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out
}

// FilterLatest returns the latest row per hash whose status is status.
func FilterLatest(rows []LedgerRow, status Status) []LedgerRow {
	var out []LedgerRow
	for _, row := range LatestByHash(rows) {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out
}

// SeenHashes collects hashes that should not be processed again.
// Hashes that only ever failed scoring stay eligible for the next run.
func SeenHashes(rows []LedgerRow) map[string]struct{} {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Hash == "" || row.Status == StatusScoreFailed {
			continue
		}
		seen[row.Hash] = struct{}{}
	}
	return seen
}
