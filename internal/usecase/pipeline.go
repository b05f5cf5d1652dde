package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ContentEngine/internal/dedup"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/gate"
	"ContentEngine/internal/ports"
)

const parseFailureReason = "generation/scoring parse failure"

// Settings are the run parameters the pipeline reads from configuration.
type Settings struct {
	Mode             domain.RunMode
	AutoPublish      bool
	MinRelevance     int
	MaxFreshnessDays int
	CallTimeout      time.Duration
	MaxItemsPerRun   int
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.ArticleSource
	Scorer    ports.Scorer
	Generator ports.Generator
	Ledger    ports.Ledger
	Publisher ports.Publisher
	Workspace ports.DocumentWorkspace
	Quality   gate.QualityGate
	Content   gate.ContentGate
	Settings  Settings
	Logger    *slog.Logger
	Clock     func() time.Time
}

// RunOptions tune a single run.
type RunOptions struct {
	// Resubmit lists hashes a reviewer sent back. They bypass dedup and a quality Hold.
	Resubmit []string
}

// Pipeline implements one content cycle: fetch, dedup, score, gate, generate, check, publish.
type Pipeline struct {
	source    ports.ArticleSource
	scorer    ports.Scorer
	generator ports.Generator
	ledger    ports.Ledger
	workspace ports.DocumentWorkspace
	quality   gate.QualityGate
	content   gate.ContentGate
	settings  Settings
	delivery  delivery
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	if !deps.Settings.Mode.Valid() {
		deps.Settings.Mode = domain.ModeFull
	}
	return &Pipeline{
		source:    deps.Source,
		scorer:    deps.Scorer,
		generator: deps.Generator,
		ledger:    deps.Ledger,
		workspace: deps.Workspace,
		quality:   deps.Quality,
		content:   deps.Content,
		settings:  deps.Settings,
		delivery: delivery{
			publisher: deps.Publisher,
			workspace: deps.Workspace,
			mode:      deps.Settings.Mode,
			timeout:   deps.Settings.CallTimeout,
		},
		logger: deps.Logger,
		now:    clock,
	}
}

// Run processes one batch. Per-item failures land in the summary; only a failure to
// read the seen set from the ledger aborts the run.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
		Mode:      p.settings.Mode,
		Errors:    []domain.ItemError{},
	}

	log := p.logger
	if log != nil {
		log = log.With("run_id", summary.RunID)
	}

	seen, err := p.loadSeen(ctx)
	if err != nil {
		summary.AddError(nil, domain.StageLedger, err)
		summary.Finish(p.now())
		return summary, fmt.Errorf("load seen identifiers: %w", err)
	}

	var articles []domain.Article
	if p.source != nil {
		articles, err = p.source.Fetch(ctx, summary.StartedAt)
		if err != nil {
			summary.AddError(nil, domain.StageFetch, err)
			logWarn(log, "fetch finished with errors", "error", err)
		}
	}
	summary.RSSItemsFetched = len(articles)

	resubmit := p.resubmittable(ctx, opts.Resubmit, seen, &summary, log)
	filter := dedup.Filter{MaxFreshnessDays: p.settings.MaxFreshnessDays, Resubmit: resubmit}
	fresh, _ := filter.Apply(articles, seen, summary.StartedAt)
	if limit := p.settings.MaxItemsPerRun; limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}
	summary.RSSItemsProcessed = len(fresh)
	logInfo(log, "batch selected", "fetched", len(articles), "new", len(fresh))

	for _, article := range fresh {
		item := domain.NewContentItem(article, p.now())
		item.ReviewOverride = resubmit.Has(article.Hash)
		p.process(ctx, item, &summary, log)
	}

	summary.Finish(p.now())
	logInfo(log, "run finished",
		"scored", summary.ItemsScored,
		"approved", summary.ItemsApproved,
		"posted", summary.ItemsPosted,
		"queued", summary.ItemsQueued,
		"held", summary.ItemsHeld,
		"rejected", summary.ItemsRejected,
		"errors", len(summary.Errors))
	return summary, nil
}

func (p *Pipeline) loadSeen(ctx context.Context) (dedup.Set, error) {
	if p.ledger == nil {
		return dedup.Set{}, nil
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	seen, err := p.ledger.ListSeenIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	return dedup.Set(seen), nil
}

// resubmittable keeps the hashes whose latest ledger status is held_for_review or rejected.
// Any other hash would bypass dedup for an item that may already be published.
func (p *Pipeline) resubmittable(ctx context.Context, hashes []string, seen dedup.Set, summary *domain.RunSummary, log *slog.Logger) dedup.Set {
	out := make(dedup.Set, len(hashes))
	if len(hashes) == 0 {
		return out
	}

	eligible := make(dedup.Set)
	if p.ledger != nil {
		for _, status := range []domain.Status{domain.StatusHeld, domain.StatusRejected} {
			rows, err := listByStatus(ctx, p.ledger, status, p.settings.CallTimeout)
			if err != nil {
				summary.AddError(nil, domain.StageLedger, fmt.Errorf("resubmit lookup: %w", err))
				return out
			}
			for _, row := range rows {
				eligible[row.Hash] = struct{}{}
			}
		}
	}

	for _, h := range hashes {
		switch {
		case eligible.Has(h):
			out[h] = struct{}{}
		case seen.Has(h):
			summary.AddError(nil, domain.StageFilter, fmt.Errorf("resubmit %s: latest status is not held_for_review or rejected", h))
			logWarn(log, "resubmission ignored", "hash", h)
		default:
			summary.AddError(nil, domain.StageFilter, fmt.Errorf("resubmit %s: not found in ledger", h))
			logWarn(log, "resubmission ignored", "hash", h)
		}
	}
	return out
}

func (p *Pipeline) process(ctx context.Context, item *domain.ContentItem, summary *domain.RunSummary, log *slog.Logger) {
	if log != nil {
		log = log.With("item_id", item.ID, "hash", item.Article.Hash)
	}

	score, err := p.score(ctx, item.Article)
	if err != nil {
		summary.AddError(item, domain.StageScore, err)
		if errors.Is(err, ports.ErrMalformedOutput) {
			p.finish(ctx, item, domain.StatusRejected, parseFailureReason, summary, log)
			return
		}
		p.finish(ctx, item, domain.StatusScoreFailed, "scoring failed: "+err.Error(), summary, log)
		return
	}
	if err := item.AttachScore(score, p.now()); err != nil {
		summary.AddError(item, domain.StageScore, err)
		return
	}
	summary.ItemsScored++

	decision := p.quality.Evaluate(item.Article, score)
	if decision.Verdict == gate.Hold && item.ReviewOverride {
		logInfo(log, "hold overridden by resubmission", "reason", decision.Reason)
		decision = gate.Decision{Verdict: gate.Pass}
	}
	switch decision.Verdict {
	case gate.Reject:
		p.finish(ctx, item, domain.StatusRejected, decision.Reason, summary, log)
		return
	case gate.Hold:
		p.finish(ctx, item, domain.StatusHeld, decision.Reason, summary, log)
		return
	}
	summary.ItemsPassedFilter++

	bundle, err := p.generate(ctx, item.Article, score)
	if err != nil {
		summary.AddError(item, domain.StageGenerate, err)
		reason := "generation failed: " + err.Error()
		if errors.Is(err, ports.ErrMalformedOutput) {
			reason = parseFailureReason
		}
		p.finish(ctx, item, domain.StatusRejected, reason, summary, log)
		return
	}
	if err := item.AttachDrafts(bundle, p.settings.MinRelevance); err != nil {
		summary.AddError(item, domain.StageGenerate, err)
		p.finish(ctx, item, domain.StatusRejected, err.Error(), summary, log)
		return
	}
	summary.ContentGenerated++

	if check := p.content.Evaluate(bundle); check.Verdict != gate.Pass {
		p.finish(ctx, item, domain.StatusHeld, check.Reason, summary, log)
		return
	}

	if err := item.Advance(domain.StatusApproved, "", p.now()); err != nil {
		summary.AddError(item, domain.StageCheck, err)
		return
	}
	summary.ItemsApproved++

	if p.workspace != nil {
		if err := p.delivery.draftPage(ctx, item); err != nil {
			summary.AddError(item, domain.StageDraft, err)
			logWarn(log, "draft page failed", "error", err)
		}
	}

	if !p.settings.AutoPublish {
		p.record(ctx, item, summary, log)
		return
	}

	urls, err := p.delivery.deliver(ctx, item)
	if err != nil {
		summary.AddError(item, domain.StagePublish, err)
	}
	if len(urls) == 0 {
		p.finish(ctx, item, domain.StatusQueued, "publish failed", summary, log)
		return
	}
	item.Publish.URLs = urls
	p.finish(ctx, item, domain.StatusPosted, "", summary, log)
}

func (p *Pipeline) score(ctx context.Context, article domain.Article) (domain.Score, error) {
	if p.scorer == nil {
		return domain.Score{}, errors.New("no scorer configured")
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	return p.scorer.Score(ctx, article)
}

func (p *Pipeline) generate(ctx context.Context, article domain.Article, score domain.Score) (domain.DraftBundle, error) {
	if p.generator == nil {
		return domain.DraftBundle{}, errors.New("no generator configured")
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	return p.generator.Generate(ctx, article, score, p.settings.Mode)
}

// finish applies a terminal transition, counts it and appends its ledger row.
func (p *Pipeline) finish(ctx context.Context, item *domain.ContentItem, to domain.Status, reason string, summary *domain.RunSummary, log *slog.Logger) {
	if err := item.Advance(to, reason, p.now()); err != nil {
		summary.AddError(item, domain.StageLedger, err)
		return
	}
	switch to {
	case domain.StatusRejected:
		summary.ItemsRejected++
	case domain.StatusHeld:
		summary.ItemsHeld++
	case domain.StatusPosted:
		summary.ItemsPosted++
	case domain.StatusQueued:
		summary.ItemsQueued++
	}
	p.record(ctx, item, summary, log)
}

func (p *Pipeline) record(ctx context.Context, item *domain.ContentItem, summary *domain.RunSummary, log *slog.Logger) {
	logInfo(log, "item finished", "status", item.Status, "reason", item.Reason, "title", item.Article.Title)
	if p.ledger == nil {
		return
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	if err := p.ledger.Append(ctx, domain.NewLedgerRow(item, rowPlatform(item), p.now())); err != nil {
		summary.AddError(item, domain.StageLedger, err)
		logWarn(log, "ledger append failed", "error", err)
	}
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, p.settings.CallTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// rowPlatform picks the platform a ledger row is projected for.
func rowPlatform(item *domain.ContentItem) domain.Platform {
	for _, p := range []domain.Platform{domain.PlatformLinkedIn, domain.PlatformX, domain.PlatformTelegram, domain.PlatformNotion} {
		if item.Publish.URLs[p] != "" {
			return p
		}
	}
	if item.Drafts == nil {
		return ""
	}
	if item.Drafts.Mode == domain.ModeBlogOnly {
		return domain.PlatformBlog
	}
	return domain.PlatformLinkedIn
}

func logInfo(log *slog.Logger, msg string, args ...any) {
	if log != nil {
		log.Info(msg, args...)
	}
}

func logWarn(log *slog.Logger, msg string, args ...any) {
	if log != nil {
		log.Warn(msg, args...)
	}
}
