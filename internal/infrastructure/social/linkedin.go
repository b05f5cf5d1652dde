package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

const (
	linkedInFeedURL   = "https://www.linkedin.com/feed/update/"
	linkedInTextLimit = 3000
)

// LinkedIn posts organization shares through the UGC API.
type LinkedIn struct {
	endpoint    string
	accessToken string
	pageID      string
	client      *http.Client
}

var (
	_ Poster           = (*LinkedIn)(nil)
	_ EngagementReader = (*LinkedIn)(nil)
)

// NewLinkedIn registers the page credentials.
func NewLinkedIn(cfg config.LinkedInConfig) *LinkedIn {
	return &LinkedIn{
		endpoint:    strings.TrimSuffix(cfg.Endpoint, "/"),
		accessToken: cfg.AccessToken,
		pageID:      cfg.PageID,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Platform identifies the destination.
func (l *LinkedIn) Platform() domain.Platform { return domain.PlatformLinkedIn }

func (l *LinkedIn) headers() map[string]string {
	return map[string]string{
		"Authorization":             "Bearer " + l.accessToken,
		"X-Restli-Protocol-Version": "2.0.0",
	}
}

// Post publishes the long-form post and returns the feed URL of the share.
func (l *LinkedIn) Post(ctx context.Context, post domain.SocialPost) (string, error) {
	if l.accessToken == "" || l.pageID == "" {
		return "", fmt.Errorf("linkedin poster misconfigured")
	}

	payload := map[string]any{
		"author":         "urn:li:organization:" + l.pageID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": ComposeText(post, linkedInTextLimit)},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	header, err := doJSON(ctx, l.client, apiRequest{
		method:  http.MethodPost,
		url:     l.endpoint + "/ugcPosts",
		headers: l.headers(),
		body:    payload,
	}, &created)
	if err != nil {
		return "", fmt.Errorf("linkedin post: %w", err)
	}

	urn := created.ID
	if urn == "" {
		urn = header.Get("X-RestLi-Id")
	}
	if urn == "" {
		return "", fmt.Errorf("linkedin post: response carried no share id")
	}
	return linkedInFeedURL + urn, nil
}

// Owns reports whether the URL is a LinkedIn share.
func (l *LinkedIn) Owns(destinationURL string) bool {
	return strings.HasPrefix(destinationURL, linkedInFeedURL)
}

// Engagement reads likes, comments and shares for a share URL.
func (l *LinkedIn) Engagement(ctx context.Context, destinationURL string) (domain.Engagement, error) {
	urn := strings.TrimPrefix(destinationURL, linkedInFeedURL)
	var stats struct {
		Likes    int `json:"numLikes"`
		Comments int `json:"numComments"`
		Shares   int `json:"numShares"`
	}
	_, err := doJSON(ctx, l.client, apiRequest{
		method:  http.MethodGet,
		url:     l.endpoint + "/socialActions/" + url.PathEscape(urn),
		headers: l.headers(),
	}, &stats)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("linkedin engagement: %w", err)
	}
	return domain.Engagement{Likes: stats.Likes, Comments: stats.Comments, Reposts: stats.Shares}, nil
}
