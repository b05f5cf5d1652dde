package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
	"ContentEngine/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	lookback time.Duration
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
// lookback bounds how far back paginated listings are crawled.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, lookback time.Duration, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		lookback: lookback,
		logger:   log,
	}
}

// Fetch iterates over configured sites and executes their scanners.
// A failing site does not stop the others; its error is joined into the returned error
// alongside the articles that were collected.
func (s *StrategySource) Fetch(ctx context.Context, now time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch", "sites", len(s.sites), "now", now.Format(time.RFC3339))

	var (
		aggregated []domain.Article
		errs       []error
	)
	for _, site := range s.sites {
		s.debug("process site", "site", site.Name, "scanner", site.Scanner, "feeds", len(site.Feeds))
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			errs = append(errs, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		req := scanner.Request{
			Now:      now,
			Since:    now.Add(-s.lookback),
			SiteName: site.Name,
			Options:  site.Options,
			Feeds:    toScannerFeeds(site.Feeds),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("scan site %s: %w", site.Name, err))
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = site.Name
			}
			if results[i].Hash == "" {
				results[i].Hash = domain.HashURL(results[i].URL)
			}
		}
		s.debug("site produced articles", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated), "errors", len(errs))
	return aggregated, errors.Join(errs...)
}

func toScannerFeeds(cfg []config.FeedConfig) []scanner.Feed {
	feeds := make([]scanner.Feed, 0, len(cfg))
	for _, feed := range cfg {
		feeds = append(feeds, scanner.Feed{
			Name: feed.Name,
			URL:  feed.URL,
		})
	}
	return feeds
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
