package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxResponseChars caps the rendered text of a tool result. Anything larger
// is cut and flagged with a text_truncated meta entry.
const maxResponseChars = 25000

// Format selects how a tool renders its text content.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

func (f Format) orMarkdown() Format {
	if f == FormatJSON {
		return FormatJSON
	}
	return FormatMarkdown
}

// Response is the uniform tool output envelope: a title, optional summary
// lines, the payload, and request-describing metadata.
type Response struct {
	Title   string
	Summary []string
	Data    any
	Meta    map[string]any
}

// Result renders the response as a CallToolResult in the requested format.
// The structured content always carries {data, meta} untruncated; only the
// text rendering is subject to the character cap.
func (r Response) Result(format Format) *mcp.CallToolResult {
	text := r.render(format.orMarkdown())
	if len(text) > maxResponseChars {
		if r.Meta == nil {
			r.Meta = map[string]any{}
		}
		r.Meta["text_truncated"] = true
		text = truncate(r.render(format.orMarkdown()), maxResponseChars)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: text}},
		StructuredContent: r.envelope(),
	}
}

func (r Response) envelope() map[string]any {
	out := map[string]any{"data": r.Data}
	if len(r.Meta) > 0 {
		out["meta"] = r.Meta
	}
	return out
}

func (r Response) render(format Format) string {
	payload, err := json.MarshalIndent(r.envelope(), "", "  ")
	if err != nil {
		payload = []byte(fmt.Sprintf("%q", err.Error()))
	}
	if format == FormatJSON {
		return string(payload)
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(r.Title)
	if len(r.Summary) > 0 {
		b.WriteString("\n")
		for _, line := range r.Summary {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}
	b.WriteString("\n\n```json\n")
	b.Write(payload)
	b.WriteString("\n```")
	return b.String()
}

// truncate cuts text to fit limit, backing off to a rune boundary and
// leaving room for the truncation marker.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - 120
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n\n... truncated ..."
}

// Page describes one window of a paginated listing.
type Page struct {
	Total      int  `json:"total"`
	Count      int  `json:"count"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// Paginate returns the window of items at offset with at most limit entries
// plus its page descriptor. A non-positive limit returns everything after
// offset.
func Paginate[T any](items []T, offset, limit int) ([]T, Page) {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	window := items[offset:]
	if limit > 0 && len(window) > limit {
		window = window[:limit]
	}

	page := Page{
		Total:   total,
		Count:   len(window),
		Offset:  offset,
		HasMore: offset+len(window) < total,
	}
	if page.HasMore {
		next := offset + len(window)
		page.NextOffset = &next
	}
	return window, page
}
