package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// EngagementReport summarizes one refresh pass.
type EngagementReport struct {
	Checked int                `json:"checked"`
	Updated int                `json:"updated"`
	Total   domain.Engagement  `json:"total"`
	Errors  []domain.ItemError `json:"errors"`
}

// EngagementRefresher appends fresh counters for posted items.
type EngagementRefresher struct {
	ledger    ports.Ledger
	publisher ports.Publisher
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngagementRefresher wires the refresher.
func NewEngagementRefresher(ledger ports.Ledger, publisher ports.Publisher, timeout time.Duration, logger *slog.Logger) *EngagementRefresher {
	return &EngagementRefresher{ledger: ledger, publisher: publisher, timeout: timeout, logger: logger, now: time.Now}
}

// Refresh reads counters for every posted destination. Rows are appended only when counts changed.
func (r *EngagementRefresher) Refresh(ctx context.Context) (EngagementReport, error) {
	report := EngagementReport{Errors: []domain.ItemError{}}
	if r.publisher == nil {
		return report, errNoTargets
	}

	rows, err := listByStatus(ctx, r.ledger, domain.StatusPosted, r.timeout)
	if err != nil {
		return report, err
	}

	for _, row := range rows {
		if row.PostURL == "" {
			continue
		}
		item := row.Item()

		counts, err := r.fetch(ctx, row.PostURL)
		if errors.Is(err, ports.ErrEngagementUnsupported) {
			continue
		}
		report.Checked++
		if err != nil {
			report.AddError(item, err)
			logWarn(r.logger, "engagement fetch failed", "url", row.PostURL, "error", err)
			continue
		}
		report.Total = report.Total.Add(counts)
		if row.Engagement != nil && *row.Engagement == counts {
			continue
		}

		item.Publish.Engagement = counts
		if err := r.append(ctx, domain.NewLedgerRow(item, domain.Platform(row.Platform), r.now())); err != nil {
			report.AddError(item, err)
			continue
		}
		report.Updated++
	}

	logInfo(r.logger, "engagement refreshed", "checked", report.Checked, "updated", report.Updated)
	return report, nil
}

// AddError records a per-item failure.
func (e *EngagementReport) AddError(item *domain.ContentItem, err error) {
	e.Errors = append(e.Errors, domain.ItemError{
		ItemID:  item.ID,
		Hash:    item.Article.Hash,
		Title:   item.Article.Title,
		Stage:   domain.StagePublish,
		Message: err.Error(),
	})
}

func (r *EngagementRefresher) fetch(ctx context.Context, url string) (domain.Engagement, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.publisher.FetchEngagement(ctx, url)
}

func (r *EngagementRefresher) append(ctx context.Context, row domain.LedgerRow) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.ledger.Append(ctx, row)
}
