package llm

import (
	"fmt"
	"regexp"
	"strings"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

// Brand carries the call to action every draft must embed.
type Brand struct {
	URL       string
	CTAPhrase string
	Campaign  string
	Hashtags  []string
}

// BrandFromConfig maps the brand section of the configuration.
func BrandFromConfig(cfg config.BrandConfig) Brand {
	return Brand{
		URL:       strings.TrimSuffix(cfg.URL, "/"),
		CTAPhrase: cfg.CTAPhrase,
		Campaign:  cfg.UTMCampaign,
		Hashtags:  cfg.Hashtags,
	}
}

// Link builds the tracked CTA link for a platform.
func (b Brand) Link(p domain.Platform) string {
	medium := "social"
	if p == domain.PlatformBlog {
		medium = "content"
	}
	return fmt.Sprintf("%s/?utm_source=%s&utm_campaign=%s&utm_medium=%s",
		strings.TrimSuffix(b.URL, "/"), p, b.Campaign, medium)
}

// EmbedCTA rewrites text so it carries the platform link exactly once, preceded by the
// CTA phrase when the text does not already contain it.
func (b Brand) EmbedCTA(text string, p domain.Platform) string {
	brandLink := regexp.MustCompile(regexp.QuoteMeta(strings.TrimSuffix(b.URL, "/")) + `[^\s)\]]*`)
	stripped := brandLink.ReplaceAllString(text, "")
	stripped = strings.TrimSpace(collapseSpaces(stripped))

	link := b.Link(p)
	if strings.Contains(strings.ToLower(stripped), strings.ToLower(b.CTAPhrase)) {
		return stripped + " " + link
	}
	if stripped == "" {
		return b.CTAPhrase + ": " + link
	}
	return stripped + "\n\n" + b.CTAPhrase + ": " + link
}

// SelectHashtags puts the brand tags first and fills up to limit with distinct suggestions.
func (b Brand) SelectHashtags(suggested []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	add := func(tag string) {
		tag = normalizeHashtag(tag)
		if tag == "" || len(out) >= limit {
			return
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range b.Hashtags {
		add(tag)
	}
	for _, tag := range suggested {
		add(tag)
	}
	return out
}

var spaceRun = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

func normalizeHashtag(tag string) string {
	tag = strings.Join(strings.Fields(tag), "")
	tag = strings.TrimLeft(tag, "#")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(title), "-"), "-")
}
