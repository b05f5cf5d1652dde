package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

func counts(s domain.RunSummary) domain.RunSummary {
	return domain.RunSummary{
		RSSItemsFetched:   s.RSSItemsFetched,
		RSSItemsProcessed: s.RSSItemsProcessed,
		ItemsScored:       s.ItemsScored,
		ItemsPassedFilter: s.ItemsPassedFilter,
		ContentGenerated:  s.ContentGenerated,
		ItemsApproved:     s.ItemsApproved,
		ItemsPosted:       s.ItemsPosted,
		ItemsQueued:       s.ItemsQueued,
		ItemsHeld:         s.ItemsHeld,
		ItemsRejected:     s.ItemsRejected,
	}
}

func TestPipelineEndToEndPosted(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.workspace = &fakeWorkspace{url: "https://www.notion.so/page-1"}

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := domain.RunSummary{
		RSSItemsFetched:   1,
		RSSItemsProcessed: 1,
		ItemsScored:       1,
		ItemsPassedFilter: 1,
		ContentGenerated:  1,
		ItemsApproved:     1,
		ItemsPosted:       1,
	}
	if diff := cmp.Diff(want, counts(summary)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if len(summary.Errors) != 0 || summary.RunID == "" || summary.Mode != domain.ModeFull {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if diff := cmp.Diff([]domain.Status{domain.StatusPosted}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}
	row := h.ledger.rows[0]
	if row.PostURL != "https://www.linkedin.com/feed/update/urn:li:share:1" || row.Platform != "linkedin" {
		t.Fatalf("unexpected row destination %s %s", row.Platform, row.PostURL)
	}
	if row.PostedAt == nil || row.Drafts == nil || *row.Relevance != 8 {
		t.Fatalf("row missing projection fields: %+v", row)
	}
	if len(h.workspace.pages) != 1 || h.workspace.metas[0].SourceURL != "https://example.com/a" {
		t.Fatalf("expected one draft page for the approved item")
	}
}

func TestPipelineQueuedWhenAllPlatformsFail(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.publisher = failingPublisher()

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsQueued != 1 || summary.ItemsPosted != 0 {
		t.Fatalf("expected queued item, got %+v", counts(summary))
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Stage != domain.StagePublish {
		t.Fatalf("expected one publish error, got %+v", summary.Errors)
	}
	if !strings.Contains(summary.Errors[0].Message, "rate limited") || !strings.Contains(summary.Errors[0].Message, "token expired") {
		t.Fatalf("expected both platform errors, got %q", summary.Errors[0].Message)
	}
	if diff := cmp.Diff([]domain.Status{domain.StatusQueued}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"), article("https://example.com/b"))
	p := h.pipeline()

	if _, err := p.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if second.RSSItemsFetched != 2 || second.RSSItemsProcessed != 0 {
		t.Fatalf("expected 2 fetched and 0 processed, got %+v", counts(second))
	}
	if len(h.ledger.rows) != 2 || len(h.publisher.published) != 2 {
		t.Fatalf("rerun must not publish again: rows=%d published=%d", len(h.ledger.rows), len(h.publisher.published))
	}
}

func TestPipelineScoreFailureIsRetriedNextRun(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.scorer.errs = map[string]error{"https://example.com/a": context.DeadlineExceeded}
	p := h.pipeline()

	summary, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsScored != 0 || len(summary.Errors) != 1 || summary.Errors[0].Stage != domain.StageScore {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if diff := cmp.Diff([]domain.Status{domain.StatusScoreFailed}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}

	h.scorer.errs = nil
	summary, err = p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.RSSItemsProcessed != 1 || summary.ItemsPosted != 1 {
		t.Fatalf("expected retry to post, got %+v", counts(summary))
	}
}

func TestPipelineMalformedOutputRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(h *harness)
		stage domain.Stage
	}{
		{
			name: "scoring",
			setup: func(h *harness) {
				h.scorer.errs = map[string]error{"https://example.com/a": fmt.Errorf("%w: score", ports.ErrMalformedOutput)}
			},
			stage: domain.StageScore,
		},
		{
			name: "generation",
			setup: func(h *harness) {
				h.generator.err = fmt.Errorf("%w: blog body missing", ports.ErrMalformedOutput)
			},
			stage: domain.StageGenerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(article("https://example.com/a"))
			tt.setup(h)

			summary, err := h.pipeline().Run(context.Background(), RunOptions{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if summary.ItemsRejected != 1 || summary.Errors[0].Stage != tt.stage {
				t.Fatalf("unexpected summary %+v", summary)
			}
			if row := h.ledger.rows[0]; row.Status != domain.StatusRejected || row.Reason != "generation/scoring parse failure" {
				t.Fatalf("unexpected row %s %q", row.Status, row.Reason)
			}
		})
	}
}

func TestPipelineQualityGateOutcomes(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/low"), article("https://example.com/border"))
	h.scorer.scores = map[string]domain.Score{
		"https://example.com/low":    {Relevance: 5, Virality: 9},
		"https://example.com/border": {Relevance: 6, Virality: 9},
	}

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsRejected != 1 || summary.ItemsHeld != 1 || summary.ItemsPassedFilter != 0 {
		t.Fatalf("unexpected counts %+v", counts(summary))
	}
	if h.generator.calls != 0 {
		t.Fatalf("generator must not run for gated items")
	}

	reasons := map[domain.Status]string{}
	for _, r := range h.ledger.rows {
		reasons[r.Status] = r.Reason
	}
	want := map[domain.Status]string{
		domain.StatusRejected: "relevance score too low: 5 < 7",
		domain.StatusHeld:     "borderline relevance: 6",
	}
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineResubmitOverridesHold(t *testing.T) {
	t.Parallel()

	a := article("https://example.com/border")
	h := newHarness(a)
	h.scorer.scores = map[string]domain.Score{a.URL: {Relevance: 6, Virality: 9}}
	p := h.pipeline()

	if _, err := p.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := p.Run(context.Background(), RunOptions{Resubmit: []string{a.Hash}})
	if err != nil {
		t.Fatalf("resubmit Run: %v", err)
	}
	if summary.RSSItemsProcessed != 1 || summary.ItemsPosted != 1 {
		t.Fatalf("expected resubmitted item to post, got %+v", counts(summary))
	}
	if diff := cmp.Diff([]domain.Status{domain.StatusHeld, domain.StatusPosted}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineResubmitIgnoresPostedItems(t *testing.T) {
	t.Parallel()

	a := article("https://example.com/already-out")
	h := newHarness(a)
	p := h.pipeline()

	if _, err := p.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := p.Run(context.Background(), RunOptions{Resubmit: []string{a.Hash, "unknown-hash"}})
	if err != nil {
		t.Fatalf("resubmit Run: %v", err)
	}
	if summary.RSSItemsProcessed != 0 || summary.ItemsPosted != 0 {
		t.Fatalf("expected posted item to stay deduplicated, got %+v", counts(summary))
	}
	if diff := cmp.Diff([]domain.Status{domain.StatusPosted}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}
	if len(h.publisher.published) != 1 {
		t.Fatalf("expected a single publish, got %d", len(h.publisher.published))
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("expected an error per ignored resubmission, got %+v", summary.Errors)
	}
	for _, e := range summary.Errors {
		if e.Stage != domain.StageFilter {
			t.Fatalf("unexpected error stage %+v", e)
		}
	}
}

func TestPipelineContentGateHolds(t *testing.T) {
	t.Parallel()

	bundle := validBundle(domain.ModeFull)
	bundle.Blog.Body = strings.Replace(bundle.Blog.Body, "lighting lighting", "73% of professionals", 1)

	h := newHarness(article("https://example.com/a"))
	h.generator.bundle = &bundle

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsHeld != 1 || summary.ContentGenerated != 1 || summary.ItemsApproved != 0 {
		t.Fatalf("unexpected counts %+v", counts(summary))
	}
	row := h.ledger.rows[0]
	if row.Status != domain.StatusHeld || !strings.Contains(row.Reason, "invented statistics") {
		t.Fatalf("unexpected row %s %q", row.Status, row.Reason)
	}
	if row.Drafts == nil {
		t.Fatalf("held row should keep drafts for the reviewer")
	}
	if len(h.publisher.published) != 0 {
		t.Fatalf("held items must not be published")
	}
}

func TestPipelineGeneratorFailureRejects(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"), article("https://example.com/b"))
	h.generator.err = errors.New("upstream 503")

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsRejected != 2 || len(summary.Errors) != 2 {
		t.Fatalf("each item should fail independently, got %+v", summary)
	}
	if !strings.HasPrefix(h.ledger.rows[0].Reason, "generation failed") {
		t.Fatalf("unexpected reason %q", h.ledger.rows[0].Reason)
	}
}

func TestPipelineAutoPublishOffLogsApproved(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.settings.AutoPublish = false

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsApproved != 1 || summary.ItemsPosted != 0 || len(h.publisher.published) != 0 {
		t.Fatalf("unexpected counts %+v", counts(summary))
	}
	if diff := cmp.Diff([]domain.Status{domain.StatusApproved}, h.ledger.statuses()); diff != "" {
		t.Fatalf("ledger statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineBlogOnlyPublishesDraftPage(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.settings.Mode = domain.ModeBlogOnly
	h.publisher = nil
	h.workspace = &fakeWorkspace{url: "https://www.notion.so/page-1"}

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsPosted != 1 || summary.Mode != domain.ModeBlogOnly {
		t.Fatalf("unexpected summary %+v", summary)
	}
	row := h.ledger.rows[0]
	if row.Platform != "notion" || row.PostURL != "https://www.notion.so/page-1" {
		t.Fatalf("unexpected destination %s %s", row.Platform, row.PostURL)
	}
	if len(h.workspace.pages) != 1 {
		t.Fatalf("draft page should be created once, got %d", len(h.workspace.pages))
	}
}

func TestPipelineDedupAndLimit(t *testing.T) {
	t.Parallel()

	stale := article("https://example.com/old")
	old := testNow.AddDate(0, 0, -30)
	stale.PublishedAt = &old
	guide := article("https://example.com/guide")
	guide.PublishedAt = &old
	guide.Title = "The Ultimate Guide to LinkedIn photos"

	h := newHarness(stale, guide, article("https://example.com/a"), article("https://example.com/a"), article("https://example.com/b"))
	h.settings.MaxItemsPerRun = 2

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RSSItemsFetched != 5 || summary.RSSItemsProcessed != 2 {
		t.Fatalf("unexpected counts %+v", counts(summary))
	}
	var titles []string
	for _, r := range h.ledger.rows {
		titles = append(titles, r.URL)
	}
	if diff := cmp.Diff([]string{"https://example.com/guide", "https://example.com/a"}, titles); diff != "" {
		t.Fatalf("processed mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineSeenLoadFailureAborts(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.ledger.listErr = errors.New("connection refused")

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if h.scorer.calls != 0 || len(summary.Errors) != 1 {
		t.Fatalf("run must stop before scoring, got %+v", summary)
	}
}

func TestPipelineFetchAndLedgerErrorsAreCollected(t *testing.T) {
	t.Parallel()

	h := newHarness(article("https://example.com/a"))
	h.source.err = errors.New("feed 2: timeout")
	h.ledger.appendErr = errors.New("disk full")

	summary, err := h.pipeline().Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var stages []domain.Stage
	for _, e := range summary.Errors {
		stages = append(stages, e.Stage)
	}
	want := []domain.Stage{domain.StageFetch, domain.StageLedger}
	if diff := cmp.Diff(want, stages, cmpopts.SortSlices(func(a, b domain.Stage) bool { return a < b })); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
	if summary.ItemsPosted != 1 {
		t.Fatalf("item should still be processed, got %+v", counts(summary))
	}
}
