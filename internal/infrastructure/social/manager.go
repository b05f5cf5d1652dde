package social

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Manager fans a draft bundle out to the configured posters.
type Manager struct {
	posters map[domain.Platform]Poster
	order   []domain.Platform
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Publisher = (*Manager)(nil)

// NewManager registers posters in publishing order. timeout bounds each platform call.
func NewManager(timeout time.Duration, logger *slog.Logger, posters ...Poster) *Manager {
	m := &Manager{
		posters: make(map[domain.Platform]Poster, len(posters)),
		timeout: timeout,
		logger:  logger,
	}
	for _, p := range posters {
		if p == nil {
			continue
		}
		if _, dup := m.posters[p.Platform()]; !dup {
			m.order = append(m.order, p.Platform())
		}
		m.posters[p.Platform()] = p
	}
	return m
}

// Targets lists configured platforms.
func (m *Manager) Targets() []domain.Platform {
	out := make([]domain.Platform, len(m.order))
	copy(out, m.order)
	return out
}

// Publish posts to each target independently; one failing platform does not stop the others.
func (m *Manager) Publish(ctx context.Context, bundle domain.DraftBundle, targets []domain.Platform) ports.PublishReport {
	report := ports.PublishReport{
		URLs:   make(map[domain.Platform]string),
		Errors: make(map[domain.Platform]error),
	}
	for _, platform := range targets {
		poster, ok := m.posters[platform]
		if !ok {
			report.Errors[platform] = fmt.Errorf("no poster configured for %s", platform)
			continue
		}
		post, ok := bundle.Post(platform)
		if !ok {
			report.Errors[platform] = fmt.Errorf("bundle has no %s draft", platform)
			continue
		}

		url, err := m.post(ctx, poster, post)
		if err != nil {
			report.Errors[platform] = err
			m.log(slog.LevelWarn, "publish failed", "platform", platform, "error", err)
			continue
		}
		report.URLs[platform] = url
		m.log(slog.LevelInfo, "published", "platform", platform, "url", url)
	}
	return report
}

func (m *Manager) post(ctx context.Context, poster Poster, post domain.SocialPost) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return poster.Post(ctx, post)
}

// FetchEngagement asks the platform that produced the URL for its counters.
func (m *Manager) FetchEngagement(ctx context.Context, destinationURL string) (domain.Engagement, error) {
	for _, platform := range m.order {
		reader, ok := m.posters[platform].(EngagementReader)
		if !ok || !reader.Owns(destinationURL) {
			continue
		}
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		return reader.Engagement(ctx, destinationURL)
	}
	return domain.Engagement{}, fmt.Errorf("%w: %s", ErrEngagementUnsupported, destinationURL)
}

func (m *Manager) log(level slog.Level, msg string, args ...any) {
	if m.logger != nil {
		m.logger.Log(context.Background(), level, msg, args...)
	}
}
