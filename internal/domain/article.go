package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Article is a candidate fetched from a feed. It is never mutated after fetch.
type Article struct {
	Title       string
	Summary     string
	FullText    string
	Source      string
	URL         string
	Hash        string
	PublishedAt *time.Time
}

// HashURL derives the dedup identity of an article from its canonical URL.
func HashURL(url string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// AgeDays reports whole days elapsed since publication; undated articles are zero days old.
func (a Article) AgeDays(now time.Time) int {
	if a.PublishedAt == nil {
		return 0
	}
	age := now.Sub(*a.PublishedAt)
	if age < 0 {
		return 0
	}
	return int(age / (24 * time.Hour))
}

// Body returns the richest text available for prompting.
func (a Article) Body() string {
	if strings.TrimSpace(a.FullText) != "" {
		return a.FullText
	}
	return a.Summary
}
