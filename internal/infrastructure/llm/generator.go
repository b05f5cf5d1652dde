package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Hashtag limits applied while assembling posts.
const (
	longFormHashtags  = 4
	shortFormHashtags = 2
)

// Generator writes social and blog drafts through the language model.
type Generator struct {
	llm         completer
	brand       Brand
	temperature float64
}

var _ ports.Generator = (*Generator)(nil)

// NewGenerator wires the generator on top of a chat client.
func NewGenerator(client *ChatGPTClient, brand Brand, temperature float64) *Generator {
	return newGenerator(client, brand, temperature)
}

func newGenerator(c completer, brand Brand, temperature float64) *Generator {
	return &Generator{llm: c, brand: brand, temperature: temperature}
}

type rawPost struct {
	Text     any `json:"text"`
	Hashtags any `json:"hashtags"`
}

type rawBundle struct {
	LinkedIn *rawPost `json:"linkedin"`
	X        *rawPost `json:"x"`
	Blog     *struct {
		Title           any `json:"title"`
		Slug            any `json:"slug"`
		MetaDescription any `json:"meta_description"`
		Outline         any `json:"outline"`
		Body            any `json:"body_md"`
	} `json:"blog"`
}

// Generate produces the bundle for mode. The CTA link and brand hashtags are applied here;
// length contracts are left to the post-generation gate.
func (g *Generator) Generate(ctx context.Context, article domain.Article, score domain.Score, mode domain.RunMode) (domain.DraftBundle, error) {
	if !mode.Valid() {
		return domain.DraftBundle{}, fmt.Errorf("unknown run mode %q", mode)
	}

	reply, err := g.llm.Complete(ctx, generationSystemPrompt, generationPrompt(article, score, g.brand, mode), g.temperature)
	if err != nil {
		return domain.DraftBundle{}, fmt.Errorf("generate %q: %w", article.Title, err)
	}

	var raw rawBundle
	if err := json.Unmarshal([]byte(extractJSON(reply)), &raw); err != nil {
		return domain.DraftBundle{}, fmt.Errorf("%w: drafts: %v", ErrMalformedResponse, err)
	}

	if raw.Blog == nil || strings.TrimSpace(cast.ToString(raw.Blog.Body)) == "" {
		return domain.DraftBundle{}, fmt.Errorf("%w: blog body missing", ErrMalformedResponse)
	}

	bundle := domain.DraftBundle{Mode: mode}
	title := strings.TrimSpace(cast.ToString(raw.Blog.Title))
	slug := strings.TrimSpace(cast.ToString(raw.Blog.Slug))
	if slug == "" {
		slug = slugify(title)
	}
	bundle.Blog = domain.BlogDraft{
		Title:           title,
		Slug:            slug,
		MetaDescription: strings.TrimSpace(cast.ToString(raw.Blog.MetaDescription)),
		Outline:         stringList(raw.Blog.Outline),
		Body:            g.brand.EmbedCTA(cast.ToString(raw.Blog.Body), domain.PlatformBlog),
	}

	if mode == domain.ModeBlogOnly {
		return bundle, nil
	}

	linkedIn, err := g.post(raw.LinkedIn, domain.PlatformLinkedIn, longFormHashtags, score.Keywords)
	if err != nil {
		return domain.DraftBundle{}, err
	}
	x, err := g.post(raw.X, domain.PlatformX, shortFormHashtags, score.Keywords)
	if err != nil {
		return domain.DraftBundle{}, err
	}
	bundle.LinkedIn = linkedIn
	bundle.X = x
	return bundle, nil
}

func (g *Generator) post(raw *rawPost, platform domain.Platform, hashtagLimit int, keywords []string) (domain.SocialPost, error) {
	if raw == nil {
		return domain.SocialPost{}, fmt.Errorf("%w: %s post missing", ErrMalformedResponse, platform)
	}
	text := strings.TrimSpace(cast.ToString(raw.Text))
	if text == "" {
		return domain.SocialPost{}, fmt.Errorf("%w: %s text empty", ErrMalformedResponse, platform)
	}
	suggested := append(stringList(raw.Hashtags), keywords...)
	return domain.SocialPost{
		Text:     g.brand.EmbedCTA(text, platform),
		Hashtags: g.brand.SelectHashtags(suggested, hashtagLimit),
	}, nil
}
