package markdown

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatInlineBold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"text **bold** more", "text <strong>bold</strong> more"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineItalic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"*italic*", "<em>italic</em>"},
		{"_italic_", "<em>italic</em>"},
		{"text *italic* more", "text <em>italic</em> more"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineNested(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"__bold _italic_ text__", "<strong>bold <em>italic</em> text</strong>"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineLink(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			"[Wikipedia](https://en.wikipedia.org/wiki/Some_Article_Title)",
			`<a href="https://en.wikipedia.org/wiki/Some_Article_Title">Wikipedia</a>`,
		},
		{
			"Visit [link](https://example.com/my_page/sub_path) for info",
			`Visit <a href="https://example.com/my_page/sub_path">link</a> for info`,
		},
		{
			"[relative](/blog/some-post)",
			`<a href="/blog/some-post">relative</a>`,
		},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineLinkUnsafeScheme(t *testing.T) {
	got := FormatInline("[click](javascript:alert(1))")
	if strings.Contains(got, "javascript") {
		t.Errorf("unsafe scheme should be dropped: %q", got)
	}
	if !strings.Contains(got, "click") {
		t.Errorf("link text should survive: %q", got)
	}
}

func TestFormatInlineImage(t *testing.T) {
	got := FormatInline("![diagram](https://example.com/d.png)")
	if !strings.Contains(got, `src="https://example.com/d.png"`) {
		t.Errorf("image src missing: %q", got)
	}
	if !strings.Contains(got, `alt="diagram"`) {
		t.Errorf("image alt missing: %q", got)
	}
}

func TestFormatInlineCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"`code`", "<code>code</code>"},
		{"use `fmt.Println` here", "use <code>fmt.Println</code> here"},
		{"`a` and `b`", "<code>a</code> and <code>b</code>"},
		// bold inside backticks should not be formatted
		{"`**not bold**`", "<code>**not bold**</code>"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>"},
		{"## Heading 2", "<h2>Heading 2</h2>"},
		{"### Heading 3", "<h3>Heading 3</h3>"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		RenderMarkdown(&buf, tt.input)
		got := buf.String()
		if got != tt.expected {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownParagraph(t *testing.T) {
	got := Render("just some text")
	if !strings.HasPrefix(got, "<p>") || !strings.HasSuffix(got, "</p>") {
		t.Errorf("paragraph not wrapped: %q", got)
	}
}

func TestRenderMarkdownList(t *testing.T) {
	got := Render("- one\n- two")
	if !strings.Contains(got, "<ul><li>one</li><li>two</li></ul>") {
		t.Errorf("unordered list failed: %q", got)
	}

	got = Render("1. one\n2. two")
	if !strings.Contains(got, "<ol><li>one</li><li>two</li></ol>") {
		t.Errorf("ordered list failed: %q", got)
	}
}

func TestRenderMarkdownCodeBlock(t *testing.T) {
	got := Render("```\ncode here\n```")
	if !strings.Contains(got, "<pre><code>") {
		t.Errorf("code block failed: %q", got)
	}
	if !strings.Contains(got, "code here") {
		t.Errorf("code block missing content: %q", got)
	}
}

func TestRenderMarkdownCodeBlockWithLanguage(t *testing.T) {
	got := Render("```go\nfmt.Println(\"hello\")\n```")
	if !strings.Contains(got, `class="language-go"`) {
		t.Errorf("code block should have language-go class: %q", got)
	}
}

func TestRenderMarkdownBlockquote(t *testing.T) {
	got := Render("> quoted text")
	if !strings.Contains(got, "<blockquote>quoted text</blockquote>") {
		t.Errorf("blockquote failed: %q", got)
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	input := "| a | b |\n|---|---|\n| 1 | 2 |"
	got := Render(input)
	for _, want := range []string{"<table>", "<thead>", "<th>a</th>", "<tbody>", "<td>1</td>", "</table>"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q: %q", want, got)
		}
	}
}

func TestRenderMarkdownEscapesHTML(t *testing.T) {
	got := Render("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be escaped: %q", got)
	}
}
