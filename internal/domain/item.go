package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDraftsNotAllowed guards the rule that drafts only exist on items that cleared
// the relevance threshold or were explicitly resubmitted.
var ErrDraftsNotAllowed = errors.New("drafts not allowed for item")

// Engagement holds counts reported by a destination platform.
type Engagement struct {
	Clicks   int `json:"clicks"`
	Likes    int `json:"likes"`
	Reposts  int `json:"reposts"`
	Comments int `json:"comments"`
}

// Add accumulates counts from another platform.
func (e Engagement) Add(other Engagement) Engagement {
	return Engagement{
		Clicks:   e.Clicks + other.Clicks,
		Likes:    e.Likes + other.Likes,
		Reposts:  e.Reposts + other.Reposts,
		Comments: e.Comments + other.Comments,
	}
}

// PublishResult records where an item landed.
type PublishResult struct {
	URLs       map[Platform]string `json:"urls,omitempty"`
	Engagement Engagement          `json:"engagement"`
}

// PrimaryURL returns the first destination URL in a stable platform order.
func (r PublishResult) PrimaryURL() string {
	for _, p := range []Platform{PlatformLinkedIn, PlatformX, PlatformTelegram, PlatformNotion} {
		if u := r.URLs[p]; u != "" {
			return u
		}
	}
	return ""
}

// ContentItem is the aggregate that moves through the pipeline.
type ContentItem struct {
	ID             string
	Article        Article
	Score          *Score
	Drafts         *DraftBundle
	Status         Status
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	PostedAt       *time.Time
	Publish        PublishResult
	DraftPageURL   string
	Reviewer       string
	Reason         string
	ReviewOverride bool
}

// NewContentItem starts an item in the pending state.
func NewContentItem(article Article, now time.Time) *ContentItem {
	return &ContentItem{
		ID:        uuid.NewString(),
		Article:   article,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// Advance moves the item through the state machine, recording reason and time.
func (c *ContentItem) Advance(to Status, reason string, at time.Time) error {
	next, err := c.Status.Transition(to)
	if err != nil {
		return fmt.Errorf("item %s: %w", c.ID, err)
	}
	c.Status = next
	if reason != "" {
		c.Reason = reason
	}
	processed := at
	c.ProcessedAt = &processed
	if next == StatusPosted {
		posted := at
		c.PostedAt = &posted
	}
	return nil
}

// AttachScore records the scorer output and moves pending -> scored.
func (c *ContentItem) AttachScore(score Score, at time.Time) error {
	if err := c.Advance(StatusScored, "", at); err != nil {
		return err
	}
	c.Score = &score
	return nil
}

// AttachDrafts stores generated drafts when the item is eligible for them.
func (c *ContentItem) AttachDrafts(bundle DraftBundle, minRelevance int) error {
	if c.Score == nil {
		return fmt.Errorf("%w: item %s has no score", ErrDraftsNotAllowed, c.ID)
	}
	if c.Score.Relevance < minRelevance && !c.ReviewOverride {
		return fmt.Errorf("%w: item %s relevance %d below %d", ErrDraftsNotAllowed, c.ID, c.Score.Relevance, minRelevance)
	}
	c.Drafts = &bundle
	return nil
}
