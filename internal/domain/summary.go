package domain

import "time"

// Stage names a pipeline step for error attribution.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageScore    Stage = "score"
	StageFilter   Stage = "filter"
	StageGenerate Stage = "generate"
	StageCheck    Stage = "final_check"
	StageDraft    Stage = "draft_page"
	StagePublish  Stage = "publish"
	StageLedger   Stage = "ledger"
)

// ItemError carries enough context to diagnose a per-item failure without re-running.
type ItemError struct {
	ItemID  string `json:"item_id,omitempty"`
	Hash    string `json:"hash,omitempty"`
	Title   string `json:"title,omitempty"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// RunSummary is the stable result contract of a single pipeline run.
type RunSummary struct {
	RunID             string      `json:"run_id"`
	StartedAt         time.Time   `json:"start_time"`
	FinishedAt        time.Time   `json:"end_time"`
	DurationSeconds   float64     `json:"duration"`
	Mode              RunMode     `json:"mode"`
	RSSItemsFetched   int         `json:"rss_items_fetched"`
	RSSItemsProcessed int         `json:"rss_items_processed"`
	ItemsScored       int         `json:"items_scored"`
	ItemsPassedFilter int         `json:"items_passed_filter"`
	ContentGenerated  int         `json:"content_generated"`
	ItemsApproved     int         `json:"items_approved"`
	ItemsPosted       int         `json:"items_posted"`
	ItemsQueued       int         `json:"items_queued"`
	ItemsHeld         int         `json:"items_held_for_review"`
	ItemsRejected     int         `json:"items_rejected"`
	Errors            []ItemError `json:"errors"`
}

// AddError appends a per-item error.
func (s *RunSummary) AddError(item *ContentItem, stage Stage, err error) {
	e := ItemError{Stage: stage, Message: err.Error()}
	if item != nil {
		e.ItemID = item.ID
		e.Hash = item.Article.Hash
		e.Title = item.Article.Title
	}
	s.Errors = append(s.Errors, e)
}

// Finish stamps end time and duration.
func (s *RunSummary) Finish(at time.Time) {
	s.FinishedAt = at
	s.DurationSeconds = at.Sub(s.StartedAt).Seconds()
}
