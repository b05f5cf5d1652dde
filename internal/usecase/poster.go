package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// PosterDeps wires the scheduled poster.
type PosterDeps struct {
	Ledger    ports.Ledger
	Publisher ports.Publisher
	Workspace ports.DocumentWorkspace
	Selector  ports.Selector
	Mode      domain.RunMode
	Timeout   time.Duration
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Poster fills one publish slot from the approved and queued backlog.
type Poster struct {
	ledger   ports.Ledger
	selector ports.Selector
	delivery delivery
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewPoster builds the scheduled poster; a nil selector picks at random.
func NewPoster(deps PosterDeps) *Poster {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	selector := deps.Selector
	if selector == nil {
		selector = RandomSelector{}
	}
	return &Poster{
		ledger:   deps.Ledger,
		selector: selector,
		delivery: delivery{
			publisher: deps.Publisher,
			workspace: deps.Workspace,
			mode:      deps.Mode,
			timeout:   deps.Timeout,
		},
		timeout: deps.Timeout,
		logger:  deps.Logger,
		now:     clock,
	}
}

// PostNext publishes one candidate. It returns nil when nothing is waiting.
// A failed approved item becomes queued; a failed queued item stays queued.
func (p *Poster) PostNext(ctx context.Context) (*domain.ContentItem, error) {
	candidates, err := p.candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logInfo(p.logger, "nothing to post")
		return nil, nil
	}

	row := candidates[p.selector.Pick(len(candidates))]
	item := row.Item()
	log := p.logger
	if log != nil {
		log = log.With("item_id", item.ID, "hash", item.Article.Hash)
	}

	urls, pubErr := p.delivery.deliver(ctx, item)
	if len(urls) == 0 && pubErr == nil {
		pubErr = errors.New("no destination accepted the post")
	}
	switch {
	case len(urls) > 0:
		item.Publish.URLs = urls
		if err := item.Advance(domain.StatusPosted, "", p.now()); err != nil {
			return item, err
		}
	case item.Status == domain.StatusApproved:
		if err := item.Advance(domain.StatusQueued, "publish failed", p.now()); err != nil {
			return item, err
		}
	default:
		logWarn(log, "retry failed, item stays queued", "error", pubErr)
		return item, fmt.Errorf("publish %s: %w", item.Article.Hash, pubErr)
	}

	if pubErr != nil {
		logWarn(log, "publish finished with errors", "error", pubErr)
	}
	logInfo(log, "slot filled", "status", item.Status, "url", item.Publish.PrimaryURL())

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.ledger.Append(ctx, domain.NewLedgerRow(item, rowPlatform(item), p.now())); err != nil {
		return item, fmt.Errorf("ledger append: %w", err)
	}
	if item.Status == domain.StatusQueued {
		return item, fmt.Errorf("publish %s: %w", item.Article.Hash, pubErr)
	}
	return item, nil
}

func (p *Poster) candidates(ctx context.Context) ([]domain.LedgerRow, error) {
	var out []domain.LedgerRow
	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusQueued} {
		rows, err := listByStatus(ctx, p.ledger, status, p.timeout)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.Drafts != nil {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func listByStatus(ctx context.Context, ledger ports.Ledger, status domain.Status, timeout time.Duration) ([]domain.LedgerRow, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	rows, err := ledger.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", status, err)
	}
	return rows, nil
}
