// Package view holds the in-memory document the terminal host displays and
// renders its highlights.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/metcalfc/hll/internal/highlight"
)

// ErrClosed is returned by a Buffer after Close.
var ErrClosed = errors.New("buffer closed")

// Buffer is a document held in memory. It implements highlight.Document;
// ApplyHighlights swaps the whole highlight set under one lock so readers
// never see a mix of old and new ranges.
type Buffer struct {
	mu      sync.RWMutex
	name    string
	text    string
	set     highlight.Set
	color   string
	version uint64
	closed  bool
}

// NewBuffer returns a buffer named name holding text.
func NewBuffer(name, text string) *Buffer {
	return &Buffer{name: name, text: text}
}

// Name returns the document name, usually its path.
func (b *Buffer) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// Text implements highlight.Document.
func (b *Buffer) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return "", ErrClosed
	}
	return b.text, nil
}

// ApplyHighlights implements highlight.Document.
func (b *Buffer) ApplyHighlights(ctx context.Context, set highlight.Set, color string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.set = append(highlight.Set(nil), set...)
	b.color = color
	b.version++
	return nil
}

// SetText replaces the document text and clears the highlights, whose
// offsets belonged to the old text.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.set = nil
	b.version++
}

// Close detaches the buffer; later reads and updates fail with ErrClosed.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Snapshot is a consistent copy of the buffer state.
type Snapshot struct {
	Name    string
	Text    string
	Set     highlight.Set
	Color   string
	Version uint64
}

// Snapshot returns the current text and highlights together.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Name:    b.name,
		Text:    b.text,
		Set:     append(highlight.Set(nil), b.set...),
		Color:   b.color,
		Version: b.version,
	}
}
