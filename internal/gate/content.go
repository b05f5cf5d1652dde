package gate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"ContentEngine/internal/domain"
)

// Length contracts for generated drafts.
const (
	LongFormMinChars  = 120
	LongFormMaxChars  = 220
	ShortFormMinChars = 230
	ShortFormMaxChars = 260
	BlogTitleMaxChars = 60
	MetaMinChars      = 140
	MetaMaxChars      = 160
	BlogMinWords      = 600
	BlogMaxWords      = 900
	BlogMinOutline    = 3

	LongFormHashtagCap  = 4
	ShortFormHashtagCap = 2
)

const (
	fieldLinkedIn = "linkedin"
	fieldX        = "x"
	fieldBlog     = "blog"
)

var inlineHashtag = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// ContentGate checks generated drafts against brand-safety rules.
type ContentGate struct {
	text       RuleSet
	statistics RuleSet
}

// NewContentGate builds the gate for a brand URL and call-to-action phrase.
func NewContentGate(brandURL, ctaPhrase string) ContentGate {
	text := BannedPhraseRules()
	text = append(text,
		RequireRule("cta_link", brandURL, "missing brand link", false),
		RequireRule("cta_phrase", ctaPhrase, "missing call to action", true),
	)
	return ContentGate{text: text, statistics: StatisticRules()}
}

// Evaluate checks every draft in the bundle. Any violation rejects the whole bundle.
// Social posts are only checked when the bundle was generated in full mode.
func (g ContentGate) Evaluate(bundle domain.DraftBundle) Decision {
	var violations []Violation

	if bundle.Mode != domain.ModeBlogOnly {
		violations = append(violations, g.checkPost(fieldLinkedIn, bundle.LinkedIn, LongFormMinChars, LongFormMaxChars, LongFormHashtagCap)...)
		violations = append(violations, g.checkPost(fieldX, bundle.X, ShortFormMinChars, ShortFormMaxChars, ShortFormHashtagCap)...)
	}
	violations = append(violations, g.checkBlog(bundle.Blog)...)

	if len(violations) == 0 {
		return pass()
	}

	reasons := make([]string, 0, len(violations))
	for _, v := range violations {
		reasons = append(reasons, v.String())
	}
	reason := strings.Join(reasons, "; ")
	d := Decision{Verdict: Reject, Violations: violations}
	if d.Hard() {
		reason = "hard defect: " + reason
	}
	d.Reason = reason
	return d
}

func (g ContentGate) checkPost(field string, post domain.SocialPost, minChars, maxChars, hashtagCap int) []Violation {
	violations := g.text.Run(field, post.Text)

	if n := CountHashtags(post); n > hashtagCap {
		violations = append(violations, Violation{Field: field, Rule: "hashtag_cap", Reason: "too many hashtags"})
	}
	if n := utf8.RuneCountInString(post.Text); n < minChars || n > maxChars {
		violations = append(violations, Violation{Field: field, Rule: "length", Reason: "post length out of bounds"})
	}
	return violations
}

func (g ContentGate) checkBlog(blog domain.BlogDraft) []Violation {
	violations := g.text.Run(fieldBlog, blog.Body)
	violations = append(violations, g.statistics.Run(fieldBlog, blog.Body)...)

	structural := func(rule, reason string, hard bool) {
		violations = append(violations, Violation{Field: fieldBlog, Rule: rule, Reason: reason, Hard: hard})
	}
	if utf8.RuneCountInString(blog.Title) > BlogTitleMaxChars {
		structural("title_length", "title longer than 60 characters", false)
	}
	if n := utf8.RuneCountInString(blog.MetaDescription); n < MetaMinChars || n > MetaMaxChars {
		structural("meta_length", "meta description outside 140-160 characters", false)
	}
	if n := len(strings.Fields(blog.Body)); n < BlogMinWords || n > BlogMaxWords {
		structural("body_length", "body outside 600-900 words", false)
	}
	if strings.TrimSpace(blog.Slug) == "" {
		structural("slug", "missing slug", true)
	}
	if len(blog.Outline) < BlogMinOutline {
		structural("outline", "outline has fewer than 3 entries", true)
	}
	return violations
}

// CountHashtags counts distinct hashtags listed on the post or written inline.
func CountHashtags(post domain.SocialPost) int {
	tags := make(map[string]struct{})
	for _, tag := range post.Hashtags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags[tag] = struct{}{}
	}
	for _, tag := range inlineHashtag.FindAllString(post.Text, -1) {
		tags[strings.ToLower(tag)] = struct{}{}
	}
	return len(tags)
}
