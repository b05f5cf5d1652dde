package social

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

func TestComposeText(t *testing.T) {
	t.Parallel()

	post := domain.SocialPost{Text: "Hello #AIHeadshots", Hashtags: []string{"#aiheadshots", "#PersonalBranding"}}
	if got := ComposeText(post, 0); got != "Hello #AIHeadshots\n\n#PersonalBranding" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := ComposeText(post, 20); got != "Hello #AIHeadshots" {
		t.Fatalf("expected hashtags dropped over limit, got %q", got)
	}
}

func TestLinkedInPostAndEngagement(t *testing.T) {
	t.Parallel()

	var commentary string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" || r.Header.Get("X-Restli-Protocol-Version") != "2.0.0" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ugcPosts":
			var body struct {
				Author          string `json:"author"`
				SpecificContent map[string]struct {
					ShareCommentary struct {
						Text string `json:"text"`
					} `json:"shareCommentary"`
				} `json:"specificContent"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Author != "urn:li:organization:42" {
				http.Error(w, "bad author", http.StatusBadRequest)
				return
			}
			commentary = body.SpecificContent["com.linkedin.ugc.ShareContent"].ShareCommentary.Text
			w.Header().Set("X-RestLi-Id", "urn:li:share:777")
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet && r.URL.Path == "/socialActions/urn:li:share:777":
			_, _ = w.Write([]byte(`{"numLikes": 5, "numComments": 2, "numShares": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	li := NewLinkedIn(config.LinkedInConfig{AccessToken: "token", PageID: "42", Endpoint: server.URL})
	url, err := li.Post(context.Background(), domain.SocialPost{Text: "Hi", Hashtags: []string{"#AIHeadshots"}})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if url != "https://www.linkedin.com/feed/update/urn:li:share:777" {
		t.Fatalf("unexpected url %s", url)
	}
	if commentary != "Hi\n\n#AIHeadshots" {
		t.Fatalf("unexpected commentary %q", commentary)
	}

	if !li.Owns(url) {
		t.Fatalf("expected linkedin to own its url")
	}
	got, err := li.Engagement(context.Background(), url)
	if err != nil {
		t.Fatalf("Engagement: %v", err)
	}
	if got != (domain.Engagement{Likes: 5, Comments: 2, Reposts: 1}) {
		t.Fatalf("unexpected engagement %+v", got)
	}
}

func TestXPostAndEngagement(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/tweets":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data": {"id": "1899", "text": "hi"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/tweets/1899":
			if r.URL.Query().Get("tweet.fields") != "public_metrics" {
				http.Error(w, "missing fields", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"data": {"public_metrics": {"like_count": 9, "reply_count": 1, "retweet_count": 2, "quote_count": 1}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	x := NewX(config.XConfig{BearerToken: "bearer", Endpoint: server.URL + "/"})
	url, err := x.Post(context.Background(), domain.SocialPost{Text: "hi"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if url != "https://x.com/i/status/1899" {
		t.Fatalf("unexpected url %s", url)
	}
	got, err := x.Engagement(context.Background(), url)
	if err != nil {
		t.Fatalf("Engagement: %v", err)
	}
	if got != (domain.Engagement{Likes: 9, Comments: 1, Reposts: 3}) {
		t.Fatalf("unexpected engagement %+v", got)
	}
}

func TestXPostAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Too Many Requests"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewX(config.XConfig{BearerToken: "bearer", Endpoint: server.URL}).Post(context.Background(), domain.SocialPost{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	msg := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: 12, Chat: &tgbotapi.Chat{ID: msg.ChatID, UserName: strings.TrimPrefix(msg.ChannelUsername, "@")}}, nil
}

func TestTelegramPost(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{}
	channel, err := newTelegram(fs, config.TelegramConfig{ChannelUsername: "@brightface"})
	if err != nil {
		t.Fatalf("newTelegram: %v", err)
	}
	url, err := channel.Post(context.Background(), domain.SocialPost{Text: "hi"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if url != "https://t.me/brightface/12" || fs.sent[0].ChannelUsername != "@brightface" {
		t.Fatalf("unexpected url %s / %+v", url, fs.sent[0])
	}

	private, err := newTelegram(fs, config.TelegramConfig{ChatID: "-1001234"})
	if err != nil {
		t.Fatalf("newTelegram: %v", err)
	}
	url, err = private.Post(context.Background(), domain.SocialPost{Text: "hi"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if url != "https://t.me/c/1234/12" {
		t.Fatalf("unexpected private url %s", url)
	}

	if _, err := newTelegram(fs, config.TelegramConfig{ChatID: "channel"}); err == nil {
		t.Fatalf("expected error for non-numeric chat id")
	}
}

type fakePoster struct {
	platform domain.Platform
	url      string
	err      error
	got      domain.SocialPost
}

func (f *fakePoster) Platform() domain.Platform { return f.platform }

func (f *fakePoster) Post(ctx context.Context, post domain.SocialPost) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected deadline")
	}
	f.got = post
	return f.url, f.err
}

func TestManagerPublish(t *testing.T) {
	t.Parallel()

	li := &fakePoster{platform: domain.PlatformLinkedIn, url: "https://www.linkedin.com/feed/update/urn:li:share:1"}
	x := &fakePoster{platform: domain.PlatformX, err: errors.New("rate limited")}
	tg := &fakePoster{platform: domain.PlatformTelegram, url: "https://t.me/brightface/1"}
	m := NewManager(time.Second, nil, li, x, tg)

	bundle := domain.DraftBundle{
		LinkedIn: domain.SocialPost{Text: "long"},
		X:        domain.SocialPost{Text: "short"},
	}
	report := m.Publish(context.Background(), bundle, append(m.Targets(), domain.PlatformNotion))

	if !report.Succeeded() {
		t.Fatalf("expected partial success")
	}
	if len(report.URLs) != 2 || report.URLs[domain.PlatformX] != "" {
		t.Fatalf("unexpected urls %v", report.URLs)
	}
	if report.Errors[domain.PlatformX] == nil || report.Errors[domain.PlatformNotion] == nil {
		t.Fatalf("expected x and notion errors, got %v", report.Errors)
	}
	if li.got.Text != "long" || tg.got.Text != "short" {
		t.Fatalf("posters received wrong variants: %q %q", li.got.Text, tg.got.Text)
	}
}

func TestManagerFetchEngagementUnsupported(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Second, nil, &fakePoster{platform: domain.PlatformTelegram})
	if _, err := m.FetchEngagement(context.Background(), "https://t.me/brightface/1"); !errors.Is(err, ErrEngagementUnsupported) {
		t.Fatalf("expected ErrEngagementUnsupported, got %v", err)
	}
}
