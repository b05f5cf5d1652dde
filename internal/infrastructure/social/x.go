package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

const (
	xStatusURL = "https://x.com/i/status/"
	xTextLimit = 280
)

// X posts tweets through the v2 API.
type X struct {
	endpoint    string
	bearerToken string
	client      *http.Client
}

var (
	_ Poster           = (*X)(nil)
	_ EngagementReader = (*X)(nil)
)

// NewX registers the bearer token.
func NewX(cfg config.XConfig) *X {
	return &X{
		endpoint:    strings.TrimSuffix(cfg.Endpoint, "/"),
		bearerToken: cfg.BearerToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Platform identifies the destination.
func (x *X) Platform() domain.Platform { return domain.PlatformX }

// Post publishes the short-form post.
func (x *X) Post(ctx context.Context, post domain.SocialPost) (string, error) {
	if x.bearerToken == "" {
		return "", fmt.Errorf("x poster misconfigured")
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	_, err := doJSON(ctx, x.client, apiRequest{
		method:  http.MethodPost,
		url:     x.endpoint + "/tweets",
		headers: map[string]string{"Authorization": "Bearer " + x.bearerToken},
		body:    map[string]string{"text": ComposeText(post, xTextLimit)},
	}, &created)
	if err != nil {
		return "", fmt.Errorf("x post: %w", err)
	}
	if created.Data.ID == "" {
		return "", fmt.Errorf("x post: response carried no tweet id")
	}
	return xStatusURL + created.Data.ID, nil
}

// Owns reports whether the URL is a tweet.
func (x *X) Owns(destinationURL string) bool {
	return strings.HasPrefix(destinationURL, xStatusURL)
}

// Engagement reads public metrics of a tweet.
func (x *X) Engagement(ctx context.Context, destinationURL string) (domain.Engagement, error) {
	id := strings.TrimPrefix(destinationURL, xStatusURL)
	var resp struct {
		Data struct {
			Metrics struct {
				Likes    int `json:"like_count"`
				Replies  int `json:"reply_count"`
				Retweets int `json:"retweet_count"`
				Quotes   int `json:"quote_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	_, err := doJSON(ctx, x.client, apiRequest{
		method:  http.MethodGet,
		url:     x.endpoint + "/tweets/" + id + "?tweet.fields=public_metrics",
		headers: map[string]string{"Authorization": "Bearer " + x.bearerToken},
	}, &resp)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("x engagement: %w", err)
	}
	m := resp.Data.Metrics
	return domain.Engagement{Likes: m.Likes, Comments: m.Replies, Reposts: m.Retweets + m.Quotes}, nil
}
