package dedup

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ContentEngine/internal/domain"
)

func article(title, url string, published *time.Time) domain.Article {
	return domain.Article{Title: title, URL: url, Hash: domain.HashURL(url), PublishedAt: published}
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func titles(articles []domain.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	input := []domain.Article{
		article("AI headshots go mainstream", "https://example.com/a", daysAgo(now, 1)),
		article("Undated post", "https://example.com/b", nil),
		article("Recruiters and profile photos", "https://example.com/c", daysAgo(now, 5)),
	}
	f := Filter{MaxFreshnessDays: 21}

	first, seen := f.Apply(input, Set{}, now)
	if len(first) != 3 {
		t.Fatalf("expected 3 fresh articles, got %d", len(first))
	}

	second, seenAgain := f.Apply(input, seen, now)
	if len(second) != 0 {
		t.Fatalf("expected no articles on second pass, got %v", titles(second))
	}
	if diff := cmp.Diff(seen, seenAgain); diff != "" {
		t.Fatalf("seen set changed on repeat (-want +got):\n%s", diff)
	}
}

func TestApplyDoesNotMutateInputSet(t *testing.T) {
	t.Parallel()

	now := time.Now()
	seen := Set{}
	f := Filter{MaxFreshnessDays: 21}
	_, next := f.Apply([]domain.Article{article("x", "https://example.com/x", nil)}, seen, now)

	if len(seen) != 0 {
		t.Fatalf("input set mutated: %v", seen)
	}
	if len(next) != 1 {
		t.Fatalf("expected updated set to hold one hash, got %d", len(next))
	}
}

func TestFreshnessWindowAndEvergreen(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	old := daysAgo(now, 30)
	input := []domain.Article{
		article("Weekly AI roundup", "https://example.com/old", old),
		article("The Ultimate Guide to LinkedIn photos", "https://example.com/guide", old),
		{Title: "Old but useful", Summary: "Five TIPS for better lighting", URL: "https://example.com/tips", PublishedAt: old},
	}

	got, _ := Filter{MaxFreshnessDays: 21}.Apply(input, Set{}, now)
	want := []string{"The Ultimate Guide to LinkedIn photos", "Old but useful"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Fatalf("unexpected fresh set (-want +got):\n%s", diff)
	}
}

func TestApplyDropsSeenAndBatchDuplicates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	seen := Set{domain.HashURL("https://example.com/seen"): {}}
	input := []domain.Article{
		article("seen", "https://example.com/seen", nil),
		article("first", "https://example.com/dup", nil),
		article("second", "https://example.com/dup", nil),
		{Title: "unhashed", URL: "https://example.com/raw"},
	}

	got, next := Filter{MaxFreshnessDays: 21}.Apply(input, seen, now)
	if diff := cmp.Diff([]string{"first", "unhashed"}, titles(got)); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
	if got[1].Hash != domain.HashURL("https://example.com/raw") {
		t.Fatalf("expected hash to be derived from url, got %q", got[1].Hash)
	}
	if !next.Has(got[1].Hash) {
		t.Fatalf("derived hash missing from seen set")
	}
}

func TestResubmitBypassesSeenAndFreshness(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	held := article("Held item", "https://example.com/held", daysAgo(now, 40))
	seen := Set{held.Hash: {}}

	got, _ := Filter{MaxFreshnessDays: 21, Resubmit: Set{held.Hash: {}}}.Apply([]domain.Article{held, held}, seen, now)
	if len(got) != 1 || got[0].Title != "Held item" {
		t.Fatalf("expected resubmitted item exactly once, got %v", titles(got))
	}
}
