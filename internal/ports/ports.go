package ports

import (
	"context"
	"errors"
	"time"

	"ContentEngine/internal/domain"
)

// ErrMalformedOutput is wrapped by Scorer and Generator when the model reply cannot be parsed.
var ErrMalformedOutput = errors.New("malformed model response")

// ErrEngagementUnsupported is returned by Publisher when no platform reads metrics for a URL.
var ErrEngagementUnsupported = errors.New("engagement not supported for destination")

// ArticleSource pulls candidate articles from configured feeds.
type ArticleSource interface {
	Fetch(ctx context.Context, now time.Time) ([]domain.Article, error)
}

// Scorer turns an article into a structured score. It has no side effects visible to the pipeline.
type Scorer interface {
	Score(ctx context.Context, article domain.Article) (domain.Score, error)
}

// Generator produces drafts for an accepted article.
type Generator interface {
	Generate(ctx context.Context, article domain.Article, score domain.Score, mode domain.RunMode) (domain.DraftBundle, error)
}

// Ledger is the durable, append-only record of item outcomes.
type Ledger interface {
	Append(ctx context.Context, row domain.LedgerRow) error
	ListSeenIdentifiers(ctx context.Context) (map[string]struct{}, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.LedgerRow, error)
}

// PublishReport maps each attempted platform to its destination URL or failure.
type PublishReport struct {
	URLs   map[domain.Platform]string
	Errors map[domain.Platform]error
}

// Succeeded reports whether at least one platform returned a destination.
func (r PublishReport) Succeeded() bool {
	for _, u := range r.URLs {
		if u != "" {
			return true
		}
	}
	return false
}

// Publisher posts approved drafts and reads back engagement.
type Publisher interface {
	Publish(ctx context.Context, bundle domain.DraftBundle, targets []domain.Platform) PublishReport
	FetchEngagement(ctx context.Context, destinationURL string) (domain.Engagement, error)
	Targets() []domain.Platform
}

// DraftPageMeta carries the context stored next to a blog draft page.
type DraftPageMeta struct {
	SourceURL string
	Relevance int
	Virality  int
	Keywords  []string
}

// DocumentWorkspace creates draft pages for blog posts.
type DocumentWorkspace interface {
	CreateDraftPage(ctx context.Context, blog domain.BlogDraft, meta DraftPageMeta) (string, error)
}

// Selector picks one index in [0, n) for a publish slot.
type Selector interface {
	Pick(n int) int
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Add(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
