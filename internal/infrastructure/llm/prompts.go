package llm

import (
	"fmt"
	"strings"

	"ContentEngine/internal/domain"
)

const scoringSystemPrompt = `You are an editorial analyst for an AI headshots and personal branding product. ` +
	`Score incoming content for how well it can be turned into an engaging post that promotes the brand without sounding salesy.`

const generationSystemPrompt = `You are the voice of the brand. Tone: confident, modern, helpful, lightly playful. ` +
	`Avoid hype. Connect ideas to personal branding and first impressions. Never fabricate facts; cite only what is provided.`

func scoringPrompt(a domain.Article) string {
	return fmt.Sprintf(`Article:
- Title: %s
- Summary: %s
- Source: %s
- URL: %s

Task:
1) Relevance: does this help our audience with AI headshots, personal branding, LinkedIn optimization, AI content tools, or startup/creator growth?
2) Freshness: is this still timely or evergreen?
3) Angle: suggest 1-2 angles that connect this topic to first impressions, profile photos, or AI-assisted self-presentation.
4) Risk: any compliance or claims risk?

Return JSON exactly:
{
  "relevance_score": 0-10,
  "virality_score": 0-10,
  "freshness_days": integer,
  "angles": ["...", "..."],
  "risk_flags": ["none" | "medical claim" | "copyright" | "privacy" | "unverified benchmark"],
  "one_line_take": "12-18 word hook",
  "keywords": ["3-6 seo/hashtag terms"]
}`, a.Title, a.Summary, a.Source, a.URL)
}

func generationPrompt(a domain.Article, s domain.Score, b Brand, mode domain.RunMode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Context:\nTitle: %s\nSource: %s\nSummary: %s\nAngle(s): %s\nHook: %s\nURL: %s\n\n",
		a.Title, a.Source, a.Summary, strings.Join(s.Angles, ", "), s.Hook, a.URL)

	keywords := s.Keywords
	if len(keywords) > 4 {
		keywords = keywords[:4]
	}
	sb.WriteString("Brand rules:\n")
	fmt.Fprintf(&sb, "- Include the call to action %q followed by the link given per platform.\n", b.CTAPhrase)
	fmt.Fprintf(&sb, "- Use tasteful hashtags from %s plus %s.\n", strings.Join(keywords, ", "), strings.Join(b.Hashtags, " "))
	sb.WriteString("- No emojis at start of sentences; 0-2 total is fine.\n")
	sb.WriteString("- No invented statistics and no medical or appearance claims.\n\n")

	sb.WriteString("Produce JSON exactly:\n{\n")
	if mode != domain.ModeBlogOnly {
		fmt.Fprintf(&sb, `  "linkedin": {"text": "120-220 characters ending with the CTA and %s", "hashtags": ["#...", "#..."]},
  "x": {"text": "230-260 characters: hook, insight, CTA and %s", "hashtags": ["#...", "#..."]},
`, b.Link(domain.PlatformLinkedIn), b.Link(domain.PlatformX))
	}
	fmt.Fprintf(&sb, `  "blog": {
    "title": "SEO title <= 60 chars",
    "slug": "kebab-case",
    "meta_description": "140-160 chars",
    "outline": ["H2 ...", "H2 ...", "H2 ..."],
    "body_md": "600-900 words markdown with a short intro, 3-5 H2s, one checklist, a soft CTA section linking to %s and the source URL once under 'Further reading'."
  }
}`, b.Link(domain.PlatformBlog))
	return sb.String()
}
