package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// ErrEngagementUnsupported is returned when no platform can read metrics for a URL.
var ErrEngagementUnsupported = ports.ErrEngagementUnsupported

// Poster publishes one post to a single platform and returns its public URL.
type Poster interface {
	Platform() domain.Platform
	Post(ctx context.Context, post domain.SocialPost) (string, error)
}

// EngagementReader reads counters for URLs produced by the same platform.
type EngagementReader interface {
	Owns(destinationURL string) bool
	Engagement(ctx context.Context, destinationURL string) (domain.Engagement, error)
}

// ComposeText appends hashtags that are not already written inline, as long as the
// result stays within limit characters.
func ComposeText(post domain.SocialPost, limit int) string {
	text := strings.TrimSpace(post.Text)
	lower := strings.ToLower(text)
	var missing []string
	for _, tag := range post.Hashtags {
		if tag != "" && !strings.Contains(lower, strings.ToLower(tag)) {
			missing = append(missing, tag)
		}
	}
	if len(missing) == 0 {
		return text
	}
	composed := text + "\n\n" + strings.Join(missing, " ")
	if limit > 0 && utf8.RuneCountInString(composed) > limit {
		return text
	}
	return composed
}

type apiRequest struct {
	method  string
	url     string
	headers map[string]string
	body    any
}

// doJSON sends an optional JSON body and decodes a JSON reply into out.
func doJSON(ctx context.Context, client *http.Client, r apiRequest, out any) (http.Header, error) {
	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, payload)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.Header, fmt.Errorf("api error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}
