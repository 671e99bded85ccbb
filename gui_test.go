//go:build gui

package main

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	t.Run("Should split text around highlighted ranges", func(t *testing.T) {
		snap := view.Snapshot{
			Text: "Short. A long one here. End.",
			Set:  highlight.Set{{From: 7, To: 23}},
		}
		segs := segments(snap)
		require.Len(t, segs, 3)

		var texts []string
		for _, s := range segs {
			texts = append(texts, s.(*widget.TextSegment).Text)
		}
		assert.Equal(t, []string{"Short. ", "A long one here.", " End."}, texts)
		assert.Equal(t, colorNameHighlight, segs[1].(*widget.TextSegment).Style.ColorName)
		assert.True(t, segs[1].(*widget.TextSegment).Style.TextStyle.Bold)
		assert.False(t, segs[0].(*widget.TextSegment).Style.TextStyle.Bold)
	})

	t.Run("Should return nothing for an empty document", func(t *testing.T) {
		assert.Empty(t, segments(view.Snapshot{}))
	})
}

func TestHighlightTheme(t *testing.T) {
	t.Run("Should resolve the highlight colour", func(t *testing.T) {
		th := newHighlightTheme("#00ff00")
		assert.Equal(t, color.NRGBA{G: 255, A: 255}, th.Color(colorNameHighlight, theme.VariantLight))
	})

	t.Run("Should fall back to the default colour", func(t *testing.T) {
		th := newHighlightTheme("not a colour")
		assert.Equal(t, newHighlightTheme("rgba(255,182,193,0.5)").highlight, th.highlight)
	})

	t.Run("Should defer other colours to the base theme", func(t *testing.T) {
		th := newHighlightTheme("#00ff00")
		want := theme.DefaultTheme().Color(theme.ColorNameForeground, theme.VariantDark)
		assert.Equal(t, want, th.Color(theme.ColorNameForeground, theme.VariantDark))
		var _ fyne.Theme = th
	})
}

func TestWorkspace(t *testing.T) {
	ws := &workspace{}
	assert.Nil(t, ws.ActiveDocument())

	buf := view.NewBuffer("a.txt", "text")
	ws.replace(&document{buffer: buf}, nil)
	assert.Equal(t, highlight.Document(buf), ws.ActiveDocument())

	ws.replace(nil, nil)
	assert.Nil(t, ws.ActiveDocument())
	_, err := buf.Text(t.Context())
	assert.ErrorIs(t, err, view.ErrClosed)
}
