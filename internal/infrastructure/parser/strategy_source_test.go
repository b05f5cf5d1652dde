package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/scanner"
)

type fakeScanner struct {
	name     string
	articles []domain.Article
	err      error
	got      scanner.Request
}

func (f *fakeScanner) Name() string { return f.name }

func (f *fakeScanner) Scan(_ context.Context, req scanner.Request) ([]domain.Article, error) {
	f.got = req
	return f.articles, f.err
}

func TestStrategySourceFetch(t *testing.T) {
	t.Parallel()

	rss := &fakeScanner{name: "rss", articles: []domain.Article{{Title: "a", URL: "https://example.com/a"}}}
	broken := &fakeScanner{name: "arxiv", err: errors.New("listing down")}
	reg := scanner.NewRegistry()
	reg.Register(rss)
	reg.Register(broken)

	sites := []config.SiteConfig{
		{Name: "news", Scanner: "rss", Feeds: []config.FeedConfig{{Name: "f", URL: "https://example.com/feed"}}},
		{Name: "papers", Scanner: "arxiv"},
		{Name: "unknown", Scanner: "ieee"},
	}
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	src := NewStrategySource(reg, sites, 72*time.Hour, nil)

	articles, err := src.Fetch(context.Background(), now)
	if err == nil {
		t.Fatalf("expected joined error for failing sites")
	}
	if len(articles) != 1 {
		t.Fatalf("expected articles from healthy site, got %d", len(articles))
	}
	if articles[0].Source != "news" || articles[0].Hash != domain.HashURL("https://example.com/a") {
		t.Fatalf("expected source and hash defaults, got %+v", articles[0])
	}
	if !rss.got.Since.Equal(now.Add(-72*time.Hour)) || len(rss.got.Feeds) != 1 {
		t.Fatalf("unexpected request %+v", rss.got)
	}
}
