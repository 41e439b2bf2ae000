// Package notion exports meeting summaries as pages of a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"
)

const (
	// maxTextLen is Notion's limit for a single rich text content.
	maxTextLen = 2000
	// maxChildren is the most blocks one create or append call accepts.
	maxChildren = 100
)

// ErrNotConfigured is returned when the API key or database id is missing.
var ErrNotConfigured = errors.New("notion is not configured")

// PageCreator creates Notion pages.
type PageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// BlockAppender appends blocks to an existing page.
type BlockAppender interface {
	AppendChildren(ctx context.Context, id notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error)
}

// MeetingSummary is the content of an exported page.
type MeetingSummary struct {
	Title        string
	Date         time.Time
	Participants *float64
	Transcript   string
	Summary      string
}

// Exporter writes meeting summaries to a database.
type Exporter struct {
	pages      PageCreator
	blocks     BlockAppender
	databaseID string
}

// NewExporter builds an Exporter backed by the Notion API. hc may be nil.
func NewExporter(apiKey, databaseID string, hc *http.Client) *Exporter {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &Exporter{databaseID: strings.TrimSpace(databaseID)}
	}
	opts := []notionapi.ClientOption{notionapi.WithRetry(2)}
	if hc != nil {
		opts = append(opts, notionapi.WithHTTPClient(hc))
	}
	client := notionapi.NewClient(notionapi.Token(apiKey), opts...)
	return NewExporterWith(client.Page, client.Block, databaseID)
}

// NewExporterWith builds an Exporter on existing page and block services.
func NewExporterWith(pages PageCreator, blocks BlockAppender, databaseID string) *Exporter {
	return &Exporter{pages: pages, blocks: blocks, databaseID: strings.TrimSpace(databaseID)}
}

// Enabled reports whether both credentials and a target database are set.
func (e *Exporter) Enabled() bool {
	return e != nil && e.pages != nil && e.blocks != nil && e.databaseID != ""
}

// Export creates the page and returns its URL. Content beyond the first
// maxChildren blocks is appended to the new page in batches.
func (e *Exporter) Export(ctx context.Context, m MeetingSummary) (string, error) {
	if !e.Enabled() {
		return "", ErrNotConfigured
	}
	req := BuildPageRequest(e.databaseID, m)
	var rest []notionapi.Block
	if len(req.Children) > maxChildren {
		req.Children, rest = req.Children[:maxChildren], req.Children[maxChildren:]
	}

	page, err := e.pages.Create(ctx, req)
	if err != nil {
		return "", err
	}
	for len(rest) > 0 {
		n := min(len(rest), maxChildren)
		_, err := e.blocks.AppendChildren(ctx, notionapi.BlockID(page.ID),
			&notionapi.AppendBlockChildrenRequest{Children: rest[:n]})
		if err != nil {
			return "", fmt.Errorf("append content to notion page %s: %w", page.ID, err)
		}
		rest = rest[n:]
	}
	return page.URL, nil
}

// BuildPageRequest lays out the page: a title, the Date and Participants
// properties, then Summary and Transcript sections. Children are not capped;
// Export splits them across calls.
func BuildPageRequest(databaseID string, m MeetingSummary) *notionapi.PageCreateRequest {
	start := notionapi.Date(m.Date.UTC())
	props := notionapi.Properties{
		"title": notionapi.TitleProperty{
			Title: richText("Meeting Summary: " + m.Title),
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		},
	}
	if m.Participants != nil {
		props["Participants"] = notionapi.NumberProperty{Number: *m.Participants}
	}

	var children []notionapi.Block
	children = append(children, heading("Summary"))
	children = append(children, paragraphs(m.Summary)...)
	children = append(children, heading("Transcript"))
	children = append(children, paragraphs(m.Transcript)...)

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
		Children:   children,
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func heading(s string) notionapi.Block {
	return &notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{RichText: richText(s)},
	}
}

// paragraphs splits s into paragraph blocks that fit the rich text limit.
func paragraphs(s string) []notionapi.Block {
	var blocks []notionapi.Block
	for _, chunk := range chunk(s, maxTextLen) {
		blocks = append(blocks, &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{RichText: richText(chunk)},
		})
	}
	return blocks
}

// chunk cuts s into pieces of at most n runes. An empty s yields one empty
// piece so every section keeps its paragraph.
func chunk(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
