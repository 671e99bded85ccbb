package reader

import (
	"testing"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red; }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
		</body>
	</html>
	`

	expected := []string{
		"Test",
		"Chapter 1",
		"This is the first paragraph.",
		"This is the second paragraph with a newline.",
		"Some nested text.",
	}

	paragraphs := extractParagraphsFromHTML(htmlContent)

	if len(paragraphs) != len(expected) {
		t.Fatalf("Expected %d paragraphs, got %d: %q", len(expected), len(paragraphs), paragraphs)
	}
	for i, p := range paragraphs {
		if p != expected[i] {
			t.Errorf("Paragraph %d: expected %q, got %q", i, expected[i], p)
		}
	}

	text := extractTextFromHTML(htmlContent)
	want := "Test\n\nChapter 1\n\nThis is the first paragraph.\n\nThis is the second paragraph with a newline.\n\nSome nested text."
	if text != want {
		t.Errorf("extractTextFromHTML() = %q, want %q", text, want)
	}
}

func TestExtractTextFromHTMLLineBreak(t *testing.T) {
	got := extractTextFromHTML(`<p>first line<br/>second line</p>`)
	if got != "first line\n\nsecond line" {
		t.Errorf("got %q", got)
	}
}
