package notion

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

const (
	// Notion rejects rich text segments longer than this.
	maxTextRunes = 2000
	// Page creation accepts at most this many children.
	maxChildren = 100

	draftStatus = "Draft"
)

// pageCreator is the subset of notionapi.PageService used here.
type pageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Workspace stores blog drafts as pages of a Notion database.
type Workspace struct {
	pages      pageCreator
	databaseID notionapi.DatabaseID
}

var _ ports.DocumentWorkspace = (*Workspace)(nil)

// NewWorkspace authenticates with the integration token.
func NewWorkspace(cfg config.NotionConfig) *Workspace {
	client := notionapi.NewClient(notionapi.Token(cfg.APIKey))
	return newWorkspace(client.Page, cfg.DatabaseID)
}

func newWorkspace(pages pageCreator, databaseID string) *Workspace {
	return &Workspace{pages: pages, databaseID: notionapi.DatabaseID(databaseID)}
}

// CreateDraftPage creates a Draft page and returns its URL.
func (w *Workspace) CreateDraftPage(ctx context.Context, blog domain.BlogDraft, meta ports.DraftPageMeta) (string, error) {
	if strings.TrimSpace(blog.Title) == "" {
		return "", fmt.Errorf("notion draft: empty title")
	}

	page, err := w.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: w.databaseID,
		},
		Properties: pageProperties(blog, meta),
		Children:   pageBlocks(blog),
	})
	if err != nil {
		return "", fmt.Errorf("notion draft %q: %w", blog.Slug, err)
	}
	if page == nil || page.URL == "" {
		return "", fmt.Errorf("notion draft %q: response carried no url", blog.Slug)
	}
	return page.URL, nil
}

func pageProperties(blog domain.BlogDraft, meta ports.DraftPageMeta) notionapi.Properties {
	props := notionapi.Properties{
		"Title":           notionapi.TitleProperty{Title: richText(blog.Title)},
		"Slug":            notionapi.RichTextProperty{RichText: richText(blog.Slug)},
		"Status":          notionapi.SelectProperty{Select: notionapi.Option{Name: draftStatus}},
		"SEO Description": notionapi.RichTextProperty{RichText: richText(blog.MetaDescription)},
		"Relevance":       notionapi.NumberProperty{Number: float64(meta.Relevance)},
		"Virality":        notionapi.NumberProperty{Number: float64(meta.Virality)},
	}
	if meta.SourceURL != "" {
		props["Source URL"] = notionapi.URLProperty{URL: meta.SourceURL}
	}
	if tags := tagOptions(meta.Keywords); len(tags) > 0 {
		props["Tags"] = notionapi.MultiSelectProperty{MultiSelect: tags}
	}
	return props
}

// tagOptions drops duplicates and commas, which select options cannot hold.
func tagOptions(keywords []string) []notionapi.Option {
	seen := make(map[string]struct{}, len(keywords))
	var out []notionapi.Option
	for _, k := range keywords {
		name := strings.Join(strings.Fields(strings.ReplaceAll(k, ",", " ")), " ")
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, notionapi.Option{Name: name})
	}
	return out
}

// pageBlocks renders the outline as bullets followed by the markdown body.
func pageBlocks(blog domain.BlogDraft) []notionapi.Block {
	var blocks []notionapi.Block
	if len(blog.Outline) > 0 {
		blocks = append(blocks, heading2("Outline"))
		for _, section := range blog.Outline {
			if s := strings.TrimSpace(section); s != "" {
				blocks = append(blocks, bullet(s))
			}
		}
		blocks = append(blocks, notionapi.DividerBlock{
			BasicBlock: basic(notionapi.BlockTypeDivider),
			Divider:    notionapi.Divider{},
		})
	}
	blocks = append(blocks, markdownBlocks(blog.Body)...)
	if len(blocks) > maxChildren {
		blocks = blocks[:maxChildren]
	}
	return blocks
}

// markdownBlocks maps headings, bullets and paragraphs; inline markup is kept as text.
func markdownBlocks(body string) []notionapi.Block {
	var (
		blocks    []notionapi.Block
		paragraph []string
	)
	flush := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, para(strings.Join(paragraph, " ")))
			paragraph = nil
		}
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "### "):
			flush()
			blocks = append(blocks, heading3(strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "## "), strings.HasPrefix(line, "# "):
			flush()
			blocks = append(blocks, heading2(strings.TrimLeft(line, "# ")))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			flush()
			blocks = append(blocks, bullet(line[2:]))
		default:
			paragraph = append(paragraph, line)
		}
	}
	flush()
	return blocks
}

func basic(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func para(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: basic(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: richText(text)},
	}
}

func heading2(text string) notionapi.Block {
	return notionapi.Heading2Block{
		BasicBlock: basic(notionapi.BlockTypeHeading2),
		Heading2:   notionapi.Heading{RichText: richText(text)},
	}
}

func heading3(text string) notionapi.Block {
	return notionapi.Heading3Block{
		BasicBlock: basic(notionapi.BlockTypeHeading3),
		Heading3:   notionapi.Heading{RichText: richText(text)},
	}
}

func bullet(text string) notionapi.Block {
	return notionapi.BulletedListItemBlock{
		BasicBlock:       basic(notionapi.BlockTypeBulletedListItem),
		BulletedListItem: notionapi.ListItem{RichText: richText(text)},
	}
}

// richText splits text into segments Notion accepts.
func richText(text string) []notionapi.RichText {
	var out []notionapi.RichText
	for _, chunk := range chunkRunes(text, maxTextRunes) {
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: chunk},
		})
	}
	return out
}

func chunkRunes(text string, size int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}
	var out []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
