package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/spf13/cast"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/scanner"
)

const maxItemsOption = "maxItems"

// RSSScanner reads RSS and Atom feeds.
type RSSScanner struct {
	client *http.Client
	logger *slog.Logger
}

// NewRSSScanner wires an HTTP client used for every feed request.
func NewRSSScanner(client *http.Client, logger *slog.Logger) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan fetches every feed of the site. A broken feed is logged and skipped;
// the scan only fails when no feed could be read.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}
	limit := cast.ToInt(req.Options[maxItemsOption])

	var (
		results []domain.Article
		failed  int
		lastErr error
	)
	for _, feed := range req.Feeds {
		articles, err := r.scanFeed(ctx, feed.URL, limit)
		if err != nil {
			failed++
			lastErr = fmt.Errorf("feed %s: %w", feed.Name, err)
			r.warn("feed failed", "feed", feed.Name, "url", feed.URL, "error", err)
			continue
		}
		r.debug("feed scanned", "feed", feed.Name, "items", len(articles))
		results = append(results, articles...)
	}

	if failed == len(req.Feeds) {
		return nil, lastErr
	}
	return results, nil
}

func (r *RSSScanner) scanFeed(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		article, ok := toArticle(item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// toArticle maps a feed entry; entries without title or link are skipped.
func toArticle(item *gofeed.Item) (domain.Article, bool) {
	if item == nil {
		return domain.Article{}, false
	}
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return domain.Article{}, false
	}

	summary := htmlToText(item.Description)
	fullText := htmlToText(item.Content)
	if fullText == "" {
		fullText = summary
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil {
		utc := published.UTC()
		published = &utc
	}

	return domain.Article{
		Title:       title,
		Summary:     summary,
		FullText:    fullText,
		Source:      hostOf(link),
		URL:         link,
		Hash:        domain.HashURL(link),
		PublishedAt: published,
	}, true
}

// htmlToText strips markup and collapses whitespace.
func htmlToText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (r *RSSScanner) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *RSSScanner) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
