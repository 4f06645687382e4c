package tools

import (
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Content[0] = %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestResultMarkdownRendering(t *testing.T) {
	t.Parallel()

	res := Response{
		Title:   "Current Listings",
		Summary: []string{"2 items on Moogle."},
		Data:    map[string]any{"items": []int{1, 2}},
		Meta:    map[string]any{"world_dc_region": "Moogle"},
	}.Result(FormatMarkdown)

	text := resultText(t, res)
	if !strings.HasPrefix(text, "# Current Listings\n\n- 2 items on Moogle.\n\n```json\n") {
		t.Errorf("markdown text = %q, want title, summary bullet, then a json block", text)
	}
	if !strings.HasSuffix(text, "\n```") {
		t.Errorf("markdown text = %q, want a closed json fence", text)
	}
	if !strings.Contains(text, `"world_dc_region": "Moogle"`) {
		t.Errorf("markdown text missing the meta payload: %q", text)
	}
}

func TestResultJSONRendering(t *testing.T) {
	t.Parallel()

	res := Response{
		Title: "Worlds",
		Data:  []string{"Moogle"},
	}.Result(FormatJSON)

	text := resultText(t, res)
	if strings.HasPrefix(text, "#") {
		t.Errorf("json text = %q, want no markdown heading", text)
	}
	if !strings.Contains(text, `"data"`) {
		t.Errorf("json text = %q, want a data envelope", text)
	}

	structured, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("StructuredContent = %T, want map", res.StructuredContent)
	}
	if _, ok := structured["data"]; !ok {
		t.Error("StructuredContent missing data key")
	}
	if _, ok := structured["meta"]; ok {
		t.Error("StructuredContent carries an empty meta key, want it omitted")
	}
}

func TestResultUnknownFormatFallsBackToMarkdown(t *testing.T) {
	t.Parallel()

	text := resultText(t, Response{Title: "T", Data: 1}.Result(Format("yaml")))
	if !strings.HasPrefix(text, "# T") {
		t.Errorf("text = %q, want markdown fallback", text)
	}
}

func TestResultTruncatesLongText(t *testing.T) {
	t.Parallel()

	res := Response{
		Title: "Big",
		Data:  strings.Repeat("x", 2*maxResponseChars),
	}.Result(FormatJSON)

	text := resultText(t, res)
	if len(text) > maxResponseChars {
		t.Errorf("len(text) = %d, want at most %d", len(text), maxResponseChars)
	}
	if !strings.HasSuffix(text, "\n\n... truncated ...") {
		t.Errorf("text tail = %q, want the truncation marker", text[len(text)-40:])
	}

	structured := res.StructuredContent.(map[string]any)
	meta, ok := structured["meta"].(map[string]any)
	if !ok || meta["text_truncated"] != true {
		t.Errorf("meta = %v, want text_truncated=true", structured["meta"])
	}
	// The structured payload itself stays complete.
	if data, ok := structured["data"].(string); !ok || len(data) != 2*maxResponseChars {
		t.Error("StructuredContent data was truncated, want it untouched")
	}
}

func TestResultShortTextNotFlagged(t *testing.T) {
	t.Parallel()

	res := Response{Title: "Small", Data: "ok"}.Result(FormatMarkdown)
	structured := res.StructuredContent.(map[string]any)
	if _, ok := structured["meta"]; ok {
		t.Errorf("meta = %v, want none for a short response", structured["meta"])
	}
}

func TestTruncateBacksOffToRuneBoundary(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", 200)
	got := truncate(text, 150)
	if !strings.HasSuffix(got, "... truncated ...") {
		t.Fatalf("got = %q, want the marker", got)
	}
	body := strings.TrimSuffix(got, "\n\n... truncated ...")
	for _, r := range body {
		if r != 'é' {
			t.Fatalf("body contains mangled rune %q", r)
		}
	}
}

func TestPaginateWindows(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}

	window, page := Paginate(items, 0, 2)
	if len(window) != 2 || window[0] != 1 {
		t.Errorf("window = %v, want [1 2]", window)
	}
	if !page.HasMore || page.NextOffset == nil || *page.NextOffset != 2 {
		t.Errorf("page = %+v, want has_more with next_offset 2", page)
	}
	if page.Total != 5 || page.Count != 2 || page.Offset != 0 {
		t.Errorf("page = %+v, want total 5 count 2 offset 0", page)
	}

	window, page = Paginate(items, 4, 2)
	if len(window) != 1 || window[0] != 5 {
		t.Errorf("window = %v, want [5]", window)
	}
	if page.HasMore || page.NextOffset != nil {
		t.Errorf("page = %+v, want the final window", page)
	}
}

func TestPaginateEdgeOffsets(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3}

	if window, page := Paginate(items, -5, 2); len(window) != 2 || page.Offset != 0 {
		t.Errorf("negative offset window = %v page = %+v, want clamp to 0", window, page)
	}
	if window, page := Paginate(items, 99, 2); len(window) != 0 || page.Offset != 3 || page.HasMore {
		t.Errorf("past-end window = %v page = %+v, want empty final page", window, page)
	}
	if window, _ := Paginate(items, 1, 0); len(window) != 2 {
		t.Errorf("unlimited window = %v, want everything after offset", window)
	}
}
