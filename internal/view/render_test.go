package view

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/stretchr/testify/assert"
)

func bracket() lipgloss.Style {
	return lipgloss.NewStyle().Transform(func(s string) string { return "[" + s + "]" })
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []Row
	}{
		{"empty", "", 10, []Row{{0, 0}}},
		{"no wrap", "abc\r\ndef", 0, []Row{{0, 3}, {5, 8}}},
		{"blank line", "a\n\nb", 10, []Row{{0, 1}, {2, 2}, {3, 4}}},
		{"word wrap", "hello world", 5, []Row{{0, 6}, {6, 11}}},
		{"hard wrap", "abcdefgh", 3, []Row{{0, 3}, {3, 6}, {6, 8}}},
		{"wide runes", "日本語", 4, []Row{{0, 6}, {6, 9}}},
		{"break at last space", "aa bbbb", 4, []Row{{0, 3}, {3, 7}}},
		{"trailing newline", "end\n", 10, []Row{{0, 3}, {4, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Layout(tt.text, tt.width))
		})
	}
}

func TestRowOf(t *testing.T) {
	rows := []Row{{0, 6}, {6, 11}, {12, 20}}
	assert.Equal(t, 0, RowOf(rows, 0))
	assert.Equal(t, 0, RowOf(rows, 5))
	assert.Equal(t, 1, RowOf(rows, 6))
	assert.Equal(t, 1, RowOf(rows, 11))
	assert.Equal(t, 2, RowOf(rows, 19))
	assert.Equal(t, 0, RowOf(nil, 3))
}

func TestRender(t *testing.T) {
	t.Run("Should paint ranges", func(t *testing.T) {
		text := "Short. Long words here."
		got := Render(text, highlight.Set{{From: 7, To: 23}}, 0, bracket())
		assert.Equal(t, "Short. [Long words here.]", got)
	})

	t.Run("Should split a range across wrapped rows", func(t *testing.T) {
		text := "ab cd ef"
		got := Render(text, highlight.Set{{From: 3, To: 8}}, 3, bracket())
		assert.Equal(t, "ab \n[cd ]\n[ef]", got)
	})

	t.Run("Should paint several ranges on several lines", func(t *testing.T) {
		text := "one two.\nthree four."
		set := highlight.Set{{From: 0, To: 3}, {From: 4, To: 8}, {From: 9, To: 14}}
		got := Render(text, set, 0, bracket())
		assert.Equal(t, "[one] [two.]\n[three] four.", got)
	})

	t.Run("Should render text without ranges unchanged", func(t *testing.T) {
		assert.Equal(t, "plain\ntext", Render("plain\ntext", nil, 0, bracket()))
	})

	t.Run("Should ignore ranges beyond the text", func(t *testing.T) {
		got := Render("abc", highlight.Set{{From: 1, To: 2}, {From: 10, To: 20}}, 0, bracket())
		assert.Equal(t, "a[b]c", got)
	})
}

func TestHighlightStyle(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#ffdbe0"), HighlightStyle("rgba(255,182,193,0.5)").GetBackground())
	assert.Equal(t, HighlightStyle("rgba(255,182,193,0.5)").GetBackground(), HighlightStyle("nonsense").GetBackground())
}
