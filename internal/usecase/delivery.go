package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

var errNoTargets = errors.New("no publish targets configured")

// delivery publishes approved drafts. Full mode posts to social platforms;
// blog-only mode treats the draft page as the destination.
type delivery struct {
	publisher ports.Publisher
	workspace ports.DocumentWorkspace
	mode      domain.RunMode
	timeout   time.Duration
}

// draftPage creates the blog draft page once per item.
func (d delivery) draftPage(ctx context.Context, item *domain.ContentItem) error {
	if item.DraftPageURL != "" {
		return nil
	}
	if d.workspace == nil {
		return errors.New("no document workspace configured")
	}
	if item.Drafts == nil {
		return fmt.Errorf("item %s has no drafts", item.ID)
	}

	meta := ports.DraftPageMeta{SourceURL: item.Article.URL}
	if item.Score != nil {
		meta.Relevance = item.Score.Relevance
		meta.Virality = item.Score.Virality
		meta.Keywords = item.Score.Keywords
	}

	ctx, cancel := withTimeout(ctx, d.timeout)
	defer cancel()
	url, err := d.workspace.CreateDraftPage(ctx, item.Drafts.Blog, meta)
	if err != nil {
		return err
	}
	item.DraftPageURL = url
	return nil
}

// deliver returns the destinations that accepted the item and the joined failures of the rest.
func (d delivery) deliver(ctx context.Context, item *domain.ContentItem) (map[domain.Platform]string, error) {
	if item.Drafts == nil {
		return nil, fmt.Errorf("item %s has no drafts", item.ID)
	}

	mode := item.Drafts.Mode
	if !mode.Valid() {
		mode = d.mode
	}

	if mode == domain.ModeBlogOnly {
		if err := d.draftPage(ctx, item); err != nil {
			return nil, fmt.Errorf("%s: %w", domain.PlatformNotion, err)
		}
		return map[domain.Platform]string{domain.PlatformNotion: item.DraftPageURL}, nil
	}

	if d.publisher == nil {
		return nil, errNoTargets
	}
	targets := d.publisher.Targets()
	if len(targets) == 0 {
		return nil, errNoTargets
	}

	report := d.publisher.Publish(ctx, *item.Drafts, targets)
	urls := make(map[domain.Platform]string, len(report.URLs))
	for platform, url := range report.URLs {
		if url != "" {
			urls[platform] = url
		}
	}
	return urls, joinPlatformErrors(report.Errors)
}

func joinPlatformErrors(errs map[domain.Platform]error) error {
	if len(errs) == 0 {
		return nil
	}
	platforms := make([]string, 0, len(errs))
	for p := range errs {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)

	joined := make([]error, 0, len(platforms))
	for _, p := range platforms {
		joined = append(joined, fmt.Errorf("%s: %w", p, errs[domain.Platform(p)]))
	}
	return errors.Join(joined...)
}
