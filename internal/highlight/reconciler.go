package highlight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metcalfc/hll/internal/logger"
	"github.com/metcalfc/hll/internal/settings"
)

var (
	// ErrNoActiveDocument means a recompute was requested with nothing open.
	ErrNoActiveDocument = errors.New("no active document")
	// ErrEditorUnavailable means the document could not be read or updated.
	ErrEditorUnavailable = errors.New("editor unavailable")
	// ErrSuperseded means a newer recompute started before this one applied.
	ErrSuperseded = errors.New("superseded by a newer recompute")
)

// Document is the live text buffer highlights are drawn on.
type Document interface {
	// Text returns the current full text.
	Text(ctx context.Context) (string, error)
	// ApplyHighlights replaces every existing highlight with set, drawn in
	// color, in a single step.
	ApplyHighlights(ctx context.Context, set Set, color string) error
}

// Workspace knows which document is active. ActiveDocument returns nil when
// nothing is open.
type Workspace interface {
	ActiveDocument() Document
}

// WorkspaceFunc adapts a function to Workspace.
type WorkspaceFunc func() Document

func (f WorkspaceFunc) ActiveDocument() Document { return f() }

// Trigger says why a recompute started.
type Trigger int

const (
	TriggerCommand Trigger = iota
	TriggerDocumentActivated
	TriggerDocumentChanged
	TriggerSettingsChanged
)

func (t Trigger) String() string {
	switch t {
	case TriggerCommand:
		return "command"
	case TriggerDocumentActivated:
		return "document-activated"
	case TriggerDocumentChanged:
		return "document-changed"
	case TriggerSettingsChanged:
		return "settings-changed"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// Reconciler recomputes the highlight set of the active document.
//
// Overlapping recomputes resolve as latest-started-wins: each call takes a
// ticket, applies are serialized, and a call whose ticket is no longer the
// newest skips its apply and returns ErrSuperseded.
type Reconciler struct {
	workspace Workspace
	log       logger.Logger

	latest  atomic.Uint64
	applyMu sync.Mutex
}

// NewReconciler returns a Reconciler for ws. A nil log discards output.
func NewReconciler(ws Workspace, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Discard()
	}
	return &Reconciler{workspace: ws, log: log}
}

// Recompute reads the active document, detects long spans with s and replaces
// the document's highlights. The computed set is returned even when it was
// not applied. On any error the document keeps its previous highlights.
func (r *Reconciler) Recompute(ctx context.Context, trigger Trigger, s settings.Settings) (Set, error) {
	ticket := r.latest.Add(1)
	log := r.log.With("trigger", trigger.String(), "ticket", ticket)

	doc := r.workspace.ActiveDocument()
	if doc == nil {
		return nil, ErrNoActiveDocument
	}

	text, err := doc.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read text: %v", ErrEditorUnavailable, err)
	}

	start := time.Now()
	spans := Detect(text, s)
	set, missed := locate(text, spans)
	for _, span := range missed {
		log.Debug("span not located", "span", preview(span.Text, 40))
	}

	r.applyMu.Lock()
	defer r.applyMu.Unlock()
	if ticket != r.latest.Load() || ctx.Err() != nil {
		log.Debug("skipping stale highlight update")
		return set, ErrSuperseded
	}
	if err := doc.ApplyHighlights(ctx, set, s.HighlightColor); err != nil {
		return set, fmt.Errorf("%w: apply highlights: %v", ErrEditorUnavailable, err)
	}
	log.Debug("highlights applied",
		"mode", s.Mode,
		"threshold", s.Threshold(),
		"spans", len(spans),
		"ranges", len(set),
		"elapsed", time.Since(start),
	)
	return set, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
