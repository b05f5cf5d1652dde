package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/gate"
	"ContentEngine/internal/ports"
)

const (
	testBrand = "https://brightface.ai"
	testCTA   = "Try Brightface"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fill(prefix string, target int) string {
	var b strings.Builder
	b.WriteString(prefix)
	for len([]rune(b.String())) < target {
		b.WriteString(" photo")
	}
	return b.String()
}

func validBundle(mode domain.RunMode) domain.DraftBundle {
	bundle := domain.DraftBundle{
		Mode: mode,
		Blog: domain.BlogDraft{
			Title:           "Better headshots with AI",
			Slug:            "better-headshots-with-ai",
			MetaDescription: fill("How AI headshots help", 150),
			Outline:         []string{"Intro", "Lighting", "Takeaways"},
			Body:            strings.Repeat("lighting ", 690) + "Try Brightface at " + testBrand + "/?utm_source=blog&utm_campaign=autopost&utm_medium=content",
		},
	}
	if mode == domain.ModeFull {
		bundle.LinkedIn = domain.SocialPost{
			Text:     fill("Try Brightface: "+testBrand+"/?utm_source=linkedin&utm_campaign=autopost&utm_medium=social.", 150),
			Hashtags: []string{"#AIHeadshots", "#PersonalBranding", "#CareerGrowth"},
		}
		bundle.X = domain.SocialPost{
			Text:     fill("Try Brightface "+testBrand+"/?utm_source=x&utm_campaign=autopost&utm_medium=social", 245),
			Hashtags: []string{"#AIHeadshots", "#PersonalBranding"},
		}
	}
	return bundle
}

func article(url string) domain.Article {
	published := testNow.Add(-48 * time.Hour)
	return domain.Article{
		Title:       "Remote teams adopt AI headshots",
		Summary:     "Distributed companies standardize profile photos.",
		Source:      "example.com",
		URL:         url,
		Hash:        domain.HashURL(url),
		PublishedAt: &published,
	}
}

type fakeSource struct {
	articles []domain.Article
	err      error
}

func (f *fakeSource) Fetch(context.Context, time.Time) ([]domain.Article, error) {
	return f.articles, f.err
}

type fakeScorer struct {
	scores map[string]domain.Score
	errs   map[string]error
	calls  int
}

func (f *fakeScorer) Score(_ context.Context, a domain.Article) (domain.Score, error) {
	f.calls++
	if err := f.errs[a.URL]; err != nil {
		return domain.Score{}, err
	}
	if s, ok := f.scores[a.URL]; ok {
		return s, nil
	}
	return domain.Score{Relevance: 8, Virality: 7, FreshnessDays: 2, RiskFlags: []domain.RiskFlag{}}, nil
}

type fakeGenerator struct {
	bundle *domain.DraftBundle
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ domain.Article, _ domain.Score, mode domain.RunMode) (domain.DraftBundle, error) {
	f.calls++
	if f.err != nil {
		return domain.DraftBundle{}, f.err
	}
	if f.bundle != nil {
		return *f.bundle, nil
	}
	return validBundle(mode), nil
}

type memLedger struct {
	mu        sync.Mutex
	rows      []domain.LedgerRow
	appendErr error
	listErr   error
}

func (m *memLedger) Append(_ context.Context, row domain.LedgerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	// Rows written within one test share a clock; keep them ordered.
	row.RecordedAt = row.RecordedAt.Add(time.Duration(len(m.rows)) * time.Millisecond)
	m.rows = append(m.rows, row)
	return nil
}

func (m *memLedger) ListSeenIdentifiers(context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return domain.SeenHashes(m.rows), nil
}

func (m *memLedger) ListByStatus(_ context.Context, status domain.Status) ([]domain.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return domain.FilterLatest(m.rows, status), nil
}

func (m *memLedger) statuses() []domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Status, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.Status)
	}
	return out
}

type fakePublisher struct {
	targets    []domain.Platform
	urls       map[domain.Platform]string
	errs       map[domain.Platform]error
	engagement map[string]domain.Engagement
	published  []domain.DraftBundle
}

func (f *fakePublisher) Publish(_ context.Context, bundle domain.DraftBundle, targets []domain.Platform) ports.PublishReport {
	f.published = append(f.published, bundle)
	report := ports.PublishReport{URLs: map[domain.Platform]string{}, Errors: map[domain.Platform]error{}}
	for _, t := range targets {
		if err := f.errs[t]; err != nil {
			report.Errors[t] = err
			continue
		}
		report.URLs[t] = f.urls[t]
	}
	return report
}

func (f *fakePublisher) FetchEngagement(_ context.Context, url string) (domain.Engagement, error) {
	e, ok := f.engagement[url]
	if !ok {
		return domain.Engagement{}, ports.ErrEngagementUnsupported
	}
	return e, nil
}

func (f *fakePublisher) Targets() []domain.Platform { return f.targets }

func okPublisher() *fakePublisher {
	return &fakePublisher{
		targets: []domain.Platform{domain.PlatformLinkedIn, domain.PlatformX},
		urls: map[domain.Platform]string{
			domain.PlatformLinkedIn: "https://www.linkedin.com/feed/update/urn:li:share:1",
			domain.PlatformX:        "https://x.com/i/status/1",
		},
	}
}

func failingPublisher() *fakePublisher {
	return &fakePublisher{
		targets: []domain.Platform{domain.PlatformLinkedIn, domain.PlatformX},
		errs: map[domain.Platform]error{
			domain.PlatformLinkedIn: errors.New("token expired"),
			domain.PlatformX:        errors.New("rate limited"),
		},
	}
}

type fakeWorkspace struct {
	url   string
	err   error
	pages []domain.BlogDraft
	metas []ports.DraftPageMeta
}

func (f *fakeWorkspace) CreateDraftPage(_ context.Context, blog domain.BlogDraft, meta ports.DraftPageMeta) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.pages = append(f.pages, blog)
	f.metas = append(f.metas, meta)
	return f.url, nil
}

type fixedSelector struct{ index int }

func (f fixedSelector) Pick(int) int { return f.index }

type harness struct {
	source    *fakeSource
	scorer    *fakeScorer
	generator *fakeGenerator
	ledger    *memLedger
	publisher *fakePublisher
	workspace *fakeWorkspace
	settings  Settings
}

func newHarness(articles ...domain.Article) *harness {
	return &harness{
		source:    &fakeSource{articles: articles},
		scorer:    &fakeScorer{},
		generator: &fakeGenerator{},
		ledger:    &memLedger{},
		publisher: okPublisher(),
		settings: Settings{
			Mode:             domain.ModeFull,
			AutoPublish:      true,
			MinRelevance:     7,
			MaxFreshnessDays: 21,
			CallTimeout:      time.Second,
		},
	}
}

func (h *harness) pipeline() *Pipeline {
	deps := PipelineDeps{
		Source:    h.source,
		Scorer:    h.scorer,
		Generator: h.generator,
		Ledger:    h.ledger,
		Quality:   gate.NewQualityGate(7, 6, 21),
		Content:   gate.NewContentGate(testBrand, testCTA),
		Settings:  h.settings,
		Clock:     func() time.Time { return testNow },
	}
	if h.publisher != nil {
		deps.Publisher = h.publisher
	}
	if h.workspace != nil {
		deps.Workspace = h.workspace
	}
	return NewPipeline(deps)
}

func (h *harness) poster() *Poster {
	deps := PosterDeps{
		Ledger:   h.ledger,
		Selector: fixedSelector{},
		Mode:     h.settings.Mode,
		Timeout:  time.Second,
		Clock:    func() time.Time { return testNow.Add(time.Hour) },
	}
	if h.publisher != nil {
		deps.Publisher = h.publisher
	}
	if h.workspace != nil {
		deps.Workspace = h.workspace
	}
	return NewPoster(deps)
}
