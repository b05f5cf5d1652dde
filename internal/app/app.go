package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/gate"
	"ContentEngine/internal/infrastructure/llm"
	"ContentEngine/internal/infrastructure/notion"
	"ContentEngine/internal/infrastructure/parser"
	"ContentEngine/internal/infrastructure/scheduler"
	"ContentEngine/internal/infrastructure/social"
	"ContentEngine/internal/infrastructure/storage"
	"ContentEngine/internal/logging"
	"ContentEngine/internal/ports"
	"ContentEngine/internal/scanner"
	"ContentEngine/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	ledger     ports.Ledger
	publisher  ports.Publisher
	pipeline   *usecase.Pipeline
	poster     *usecase.Poster
	engagement *usecase.EngagementRefresher
	closers    []io.Closer
}

// New validates cfg and builds every adapter. Configuration problems are returned
// joined so the caller can abort before any item is processed.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	ledger, err := a.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	a.ledger = ledger

	a.publisher, err = a.buildPublisher()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var workspace ports.DocumentWorkspace
	if cfg.Notion.APIKey != "" && cfg.Notion.DatabaseID != "" {
		workspace = notion.NewWorkspace(cfg.Notion)
	}

	httpClient := &http.Client{Timeout: cfg.Pipeline.CallTimeout}
	registry := scanner.NewRegistry()
	registry.Register(parser.NewRSSScanner(httpClient, baseLogger.With("component", "scanner.rss")))
	registry.Register(parser.NewArxivScanner(httpClient, baseLogger.With("component", "scanner.arxiv")))

	lookback := time.Duration(cfg.Pipeline.MaxFreshnessDays) * 24 * time.Hour
	source := parser.NewStrategySource(registry, cfg.Sites, lookback, baseLogger.With("component", "source"))

	chat := llm.NewChatGPTClient(cfg.OpenAI)
	settings := usecase.Settings{
		Mode:             domain.RunMode(cfg.Pipeline.Mode),
		AutoPublish:      cfg.Pipeline.AutoPublish,
		MinRelevance:     cfg.Pipeline.MinRelevanceScore,
		MaxFreshnessDays: cfg.Pipeline.MaxFreshnessDays,
		CallTimeout:      cfg.Pipeline.CallTimeout,
		MaxItemsPerRun:   cfg.Pipeline.MaxItemsPerRun,
	}

	deps := usecase.PipelineDeps{
		Source:    source,
		Scorer:    llm.NewScorer(chat, cfg.OpenAI.ScoringTemperature),
		Generator: llm.NewGenerator(chat, llm.BrandFromConfig(cfg.Brand), cfg.OpenAI.GenerationTemperature),
		Ledger:    ledger,
		Workspace: workspace,
		Quality:   gate.NewQualityGate(cfg.Pipeline.MinRelevanceScore, cfg.Pipeline.MinViralityScore, cfg.Pipeline.MaxFreshnessDays),
		Content:   gate.NewContentGate(cfg.Brand.URL, cfg.Brand.CTAPhrase),
		Settings:  settings,
		Logger:    baseLogger.With("component", "pipeline"),
	}
	posterDeps := usecase.PosterDeps{
		Ledger:    ledger,
		Workspace: workspace,
		Mode:      settings.Mode,
		Timeout:   cfg.Pipeline.CallTimeout,
		Logger:    baseLogger.With("component", "poster"),
	}
	if a.publisher != nil {
		deps.Publisher = a.publisher
		posterDeps.Publisher = a.publisher
	}

	a.pipeline = usecase.NewPipeline(deps)
	a.poster = usecase.NewPoster(posterDeps)
	a.engagement = usecase.NewEngagementRefresher(ledger, a.publisher, cfg.Pipeline.CallTimeout, baseLogger.With("component", "engagement"))
	return a, nil
}

func (a *Application) openLedger(ctx context.Context) (ports.Ledger, error) {
	lc := a.cfg.Ledger
	switch lc.Driver {
	case config.LedgerSheets:
		ledger, err := storage.NewSheetsLedger(ctx, lc.CredentialsFile, lc.SpreadsheetID, lc.SheetName, a.logger.With("component", "ledger.sheets"))
		if err != nil {
			return nil, err
		}
		if err := ledger.EnsureHeader(ctx); err != nil {
			return nil, err
		}
		return ledger, nil
	default:
		ledger, err := storage.OpenSQLLedger(ctx, lc.Driver, lc.DSN, lc.Table)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ledger)
		return ledger, nil
	}
}

// buildPublisher registers a poster for every platform with credentials. It returns nil when none has.
func (a *Application) buildPublisher() (ports.Publisher, error) {
	sc := a.cfg.Social
	var posters []social.Poster
	if sc.LinkedIn.AccessToken != "" && sc.LinkedIn.PageID != "" {
		posters = append(posters, social.NewLinkedIn(sc.LinkedIn))
	}
	if sc.X.BearerToken != "" {
		posters = append(posters, social.NewX(sc.X))
	}
	if sc.Telegram.BotToken != "" && (sc.Telegram.ChatID != "" || sc.Telegram.ChannelUsername != "") {
		tg, err := social.NewTelegram(sc.Telegram)
		if err != nil {
			return nil, err
		}
		posters = append(posters, tg)
	}
	if len(posters) == 0 {
		return nil, nil
	}
	return social.NewManager(a.cfg.Pipeline.CallTimeout, a.logger.With("component", "publisher"), posters...), nil
}

// Run performs one content cycle.
func (a *Application) Run(ctx context.Context, resubmit []string) (domain.RunSummary, error) {
	return a.pipeline.Run(ctx, usecase.RunOptions{Resubmit: resubmit})
}

// Post fills one publish slot.
func (a *Application) Post(ctx context.Context) (*domain.ContentItem, error) {
	return a.poster.PostNext(ctx)
}

// RefreshEngagement appends fresh counters for posted items.
func (a *Application) RefreshEngagement(ctx context.Context) (usecase.EngagementReport, error) {
	return a.engagement.Refresh(ctx)
}

// Review lists items waiting for a human decision.
func (a *Application) Review(ctx context.Context) ([]domain.LedgerRow, error) {
	return usecase.HeldForReview(ctx, a.ledger, a.cfg.Pipeline.CallTimeout)
}

// Schedule runs cycles and posting slots until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	slots, err := a.cfg.Scheduler.PostingCronSpecs()
	if err != nil {
		return err
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.Location(), a.logger)
	s := usecase.NewScheduler(driver, a.pipeline, a.poster, a.logger.With("component", "scheduler"))
	if err := s.Start(ctx, a.cfg.Scheduler.CycleCron, slots); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cycle", a.cfg.Scheduler.CycleCron, "slots", slots, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*a.cfg.Pipeline.CallTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Close releases ledger connections.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
