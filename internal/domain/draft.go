package domain

// Platform names a publishing destination.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformX        Platform = "x"
	PlatformTelegram Platform = "telegram"
	PlatformBlog     Platform = "blog"
	PlatformNotion   Platform = "notion"
)

// RunMode selects which drafts the generator produces.
type RunMode string

const (
	ModeFull     RunMode = "full"
	ModeBlogOnly RunMode = "blog_only"
)

// Valid reports whether m is a known mode.
func (m RunMode) Valid() bool {
	return m == ModeFull || m == ModeBlogOnly
}

// SocialPost is a single platform post.
type SocialPost struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
}

// Empty reports whether the post carries no content.
func (p SocialPost) Empty() bool {
	return p.Text == "" && len(p.Hashtags) == 0
}

// BlogDraft is the long-form article draft.
type BlogDraft struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	MetaDescription string   `json:"meta_description"`
	Outline         []string `json:"outline"`
	Body            string   `json:"body_md"`
}

// DraftBundle groups every generated variant for one article.
// In blog-only mode LinkedIn and X are empty.
type DraftBundle struct {
	Mode     RunMode    `json:"mode"`
	LinkedIn SocialPost `json:"linkedin"`
	X        SocialPost `json:"x"`
	Blog     BlogDraft  `json:"blog"`
}

// Post returns the social post for a platform, if the bundle has one.
func (b DraftBundle) Post(p Platform) (SocialPost, bool) {
	switch p {
	case PlatformLinkedIn:
		return b.LinkedIn, !b.LinkedIn.Empty()
	case PlatformX, PlatformTelegram:
		// Telegram reuses the short-form variant.
		return b.X, !b.X.Empty()
	default:
		return SocialPost{}, false
	}
}
