package view

import (
	"context"
	"sync"
	"testing"

	"github.com/metcalfc/hll/internal/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	ctx := context.Background()

	t.Run("Should replace highlights atomically", func(t *testing.T) {
		b := NewBuffer("doc.md", "hello world")
		require.NoError(t, b.ApplyHighlights(ctx, highlight.Set{{From: 0, To: 5}}, "#ff0000"))
		require.NoError(t, b.ApplyHighlights(ctx, highlight.Set{{From: 6, To: 11}}, "#00ff00"))

		snap := b.Snapshot()

		assert.Equal(t, highlight.Set{{From: 6, To: 11}}, snap.Set)
		assert.Equal(t, "#00ff00", snap.Color)
		assert.Equal(t, "doc.md", snap.Name)
		assert.Equal(t, uint64(2), snap.Version)
	})

	t.Run("Should copy the applied set", func(t *testing.T) {
		b := NewBuffer("doc", "hello world")
		set := highlight.Set{{From: 0, To: 5}}
		require.NoError(t, b.ApplyHighlights(ctx, set, "#fff"))

		set[0].To = 1

		assert.Equal(t, 5, b.Snapshot().Set[0].To)
	})

	t.Run("Should clear highlights of the old text on SetText", func(t *testing.T) {
		b := NewBuffer("doc", "Short one. A long sentence that used to be highlighted here.")
		require.NoError(t, b.ApplyHighlights(ctx, highlight.Set{{From: 11, To: 60}}, "#fff"))
		before := b.Snapshot().Version

		b.SetText("Fresh text. A new document that is longer than before and has no long parts at all.")
		text, err := b.Text(ctx)

		require.NoError(t, err)
		assert.Equal(t, "Fresh text. A new document that is longer than before and has no long parts at all.", text)
		snap := b.Snapshot()
		assert.Empty(t, snap.Set)
		assert.Greater(t, snap.Version, before)
	})

	t.Run("Should fail after Close", func(t *testing.T) {
		b := NewBuffer("doc", "text")
		b.Close()

		_, err := b.Text(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, b.ApplyHighlights(ctx, nil, "#fff"), ErrClosed)
	})

	t.Run("Should honour a cancelled context", func(t *testing.T) {
		b := NewBuffer("doc", "text")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := b.Text(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, b.ApplyHighlights(cctx, nil, "#fff"), context.Canceled)
	})

	t.Run("Should never expose a partial set to readers", func(t *testing.T) {
		b := NewBuffer("doc", "aaaa bbbb cccc dddd")
		small := highlight.Set{{From: 0, To: 4}}
		large := highlight.Set{{From: 0, To: 4}, {From: 5, To: 9}, {From: 10, To: 14}}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if i%2 == 0 {
					_ = b.ApplyHighlights(ctx, small, "#111")
				} else {
					_ = b.ApplyHighlights(ctx, large, "#222")
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				snap := b.Snapshot()
				switch snap.Color {
				case "#111":
					assert.Len(t, snap.Set, 1)
				case "#222":
					assert.Len(t, snap.Set, 3)
				}
			}
		}()
		wg.Wait()
	})
}
