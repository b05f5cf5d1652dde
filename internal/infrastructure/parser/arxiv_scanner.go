package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentEngine/internal/dedup"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/scanner"
)

const (
	arxivBaseURL = "https://arxiv.org"
	userAgent    = "ContentEngine/1.0"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls listing pages and extracts papers announced since the request window start.
type ArxivScanner struct {
	client   *http.Client
	pageSize int
	logger   *slog.Logger
}

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, logger *slog.Logger) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivScanner{client: client, pageSize: 200, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks through each listing URL and returns papers dated on or after req.Since,
// plus older evergreen papers found on the last page it reads.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}

	since := req.Since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}

	for _, feed := range req.Feeds {
		skip := 0
		for {
			pageURL, err := buildPageURL(feed.URL, skip, a.pageSize)
			if err != nil {
				return results, fmt.Errorf("feed %s: %w", feed.Name, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return results, fmt.Errorf("feed %s: %w", feed.Name, err)
			}

			pageArticles, shouldContinue := a.extractArticles(doc, since)
			for _, article := range pageArticles {
				if _, ok := seen[article.Hash]; ok {
					continue
				}
				seen[article.Hash] = struct{}{}
				results = append(results, article)
			}

			if !shouldContinue {
				break
			}
			skip += a.pageSize
		}
		if a.logger != nil {
			a.logger.Debug("arxiv feed scanned", "feed", feed.Name, "total", len(results))
		}
	}

	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractArticles(doc *goquery.Document, since time.Time) ([]domain.Article, bool) {
	var (
		collected    []domain.Article
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		article, err := parseEntry(dt, dd)
		if err != nil {
			return true
		}

		// Listings are newest first: an entry older than since ends paging, but evergreen
		// entries on the fetched page still go through so dedup can exempt them.
		articleDay := article.PublishedAt.UTC().Truncate(24 * time.Hour)
		if articleDay.Before(since) {
			continueScan = false
			if dedup.IsEvergreen(article) {
				collected = append(collected, article)
			}
			return true
		}
		collected = append(collected, article)
		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection) (domain.Article, error) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.Article{}, fmt.Errorf("entry without abstract link")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = strings.TrimSpace(summary)

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return domain.Article{
		Title:       title,
		Summary:     summary,
		URL:         href,
		Source:      hostOf(href),
		Hash:        domain.HashURL(href),
		PublishedAt: &publishedAt,
	}, nil
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
