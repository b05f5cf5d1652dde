package dedup

import (
	"strings"
	"time"

	"ContentEngine/internal/domain"
)

// EvergreenKeywords mark content that is exempt from the freshness window.
var EvergreenKeywords = []string{"guide", "how to", "checklist", "tutorial", "tips"}

// Set holds dedup hashes of articles already processed.
type Set map[string]struct{}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Has reports whether hash was seen.
func (s Set) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

// Filter removes seen and stale articles.
type Filter struct {
	MaxFreshnessDays int
	// Resubmit lists hashes a reviewer sent back in. They bypass the seen and freshness checks.
	Resubmit Set
}

// Apply returns the articles that are new and fresh, in input order, and the seen set
// extended with their hashes. The input set is not modified.
func (f Filter) Apply(articles []domain.Article, seen Set, now time.Time) ([]domain.Article, Set) {
	next := seen.Clone()
	batch := make(Set, len(articles))
	fresh := make([]domain.Article, 0, len(articles))

	for _, article := range articles {
		hash := article.Hash
		if hash == "" {
			hash = domain.HashURL(article.URL)
			article.Hash = hash
		}
		if batch.Has(hash) {
			continue
		}

		if !f.Resubmit.Has(hash) {
			if next.Has(hash) {
				continue
			}
			if !f.IsFresh(article, now) {
				continue
			}
		}

		batch[hash] = struct{}{}
		next[hash] = struct{}{}
		fresh = append(fresh, article)
	}

	return fresh, next
}

// IsFresh reports whether article is inside the freshness window or evergreen.
// Undated articles count as fresh.
func (f Filter) IsFresh(article domain.Article, now time.Time) bool {
	if article.PublishedAt == nil {
		return true
	}
	if article.AgeDays(now) <= f.MaxFreshnessDays {
		return true
	}
	return IsEvergreen(article)
}

// IsEvergreen matches evergreen keywords case-insensitively against title and summary.
func IsEvergreen(article domain.Article) bool {
	text := strings.ToLower(article.Title + "\n" + article.Summary)
	for _, kw := range EvergreenKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
