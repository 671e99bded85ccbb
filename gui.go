//go:build gui

package main

import (
	"context"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/reader"
	"github.com/metcalfc/hll/internal/settings"
	"github.com/metcalfc/hll/internal/view"
	"github.com/metcalfc/hll/internal/watch"
)

// colorNameHighlight is the theme colour used for highlighted ranges.
const colorNameHighlight fyne.ThemeColorName = "hllHighlight"

// highlightTheme wraps a theme and adds the highlight colour.
type highlightTheme struct {
	fyne.Theme
	highlight color.Color
}

func newHighlightTheme(c string) *highlightTheme {
	parsed, err := settings.ParseColor(c)
	if err != nil {
		parsed, _ = settings.ParseColor(settings.DefaultHighlightColor)
	}
	return &highlightTheme{Theme: theme.DefaultTheme(), highlight: parsed.NRGBA()}
}

func (t *highlightTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == colorNameHighlight {
		return t.highlight
	}
	return t.Theme.Color(name, variant)
}

// workspace tracks the document open in the window.
type workspace struct {
	mu      sync.Mutex
	doc     *document
	watcher *watch.Watcher
}

func (w *workspace) ActiveDocument() highlight.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doc == nil || w.doc.buffer == nil {
		return nil
	}
	return w.doc.buffer
}

func (w *workspace) current() *document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

// replace makes doc active and returns the watcher of the previous one.
func (w *workspace) replace(doc *document, watcher *watch.Watcher) *watch.Watcher {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doc != nil && w.doc.buffer != nil {
		w.doc.buffer.Close()
	}
	old := w.watcher
	w.doc, w.watcher = doc, watcher
	return old
}

// segments turns a snapshot into rich text, highlighted ranges in bold and
// the highlight colour.
func segments(snap view.Snapshot) []widget.RichTextSegment {
	plain := widget.RichTextStyleInline
	marked := widget.RichTextStyle{
		Inline:    true,
		ColorName: colorNameHighlight,
		TextStyle: fyne.TextStyle{Bold: true},
	}

	var out []widget.RichTextSegment
	pos := 0
	for _, r := range snap.Set {
		if r.From > pos {
			out = append(out, &widget.TextSegment{Text: snap.Text[pos:r.From], Style: plain})
		}
		out = append(out, &widget.TextSegment{Text: snap.Text[r.From:r.To], Style: marked})
		pos = r.To
	}
	if pos < len(snap.Text) {
		out = append(out, &widget.TextSegment{Text: snap.Text[pos:], Style: plain})
	}
	return out
}

func runGUI(ctx context.Context, sess *session, opts *options, doc *document) error {
	a := app.New()
	a.Settings().SetTheme(newHighlightTheme(sess.profile.effective.HighlightColor))
	w := a.NewWindow("ghll - Long Sentence Highlighter")

	ws := &workspace{}
	r := highlight.NewReconciler(ws, sess.log)

	var mu sync.Mutex
	current := sess.profile
	snapshot := func() settings.Settings {
		mu.Lock()
		defer mu.Unlock()
		return current.effective
	}

	text := widget.NewRichText()
	text.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(text)

	statusLabel := widget.NewLabel("No document open.")
	statusLabel.Alignment = fyne.TextAlignCenter

	redraw := func() {
		d := ws.current()
		if d == nil || d.buffer == nil {
			text.Segments = nil
			text.Refresh()
			return
		}
		text.Segments = segments(d.buffer.Snapshot())
		text.Refresh()
	}

	recompute := func(trigger highlight.Trigger) {
		s := snapshot()
		go func() {
			set, err := r.Recompute(ctx, trigger, s)
			fyne.Do(func() {
				if err != nil {
					if notice := noticeFor(err); notice != "" {
						statusLabel.SetText(notice)
					}
					return
				}
				a.Settings().SetTheme(newHighlightTheme(s.HighlightColor))
				statusLabel.SetText(summary(set, s))
				redraw()
			})
		}()
	}

	reload := func(d *document) {
		content, err := reader.ExtractText(d.path)
		fyne.Do(func() {
			if err != nil {
				statusLabel.SetText("Failed to reload: " + err.Error())
				return
			}
			d.buffer.SetText(content)
			redraw()
			recompute(highlight.TriggerDocumentChanged)
		})
	}
	activate := func(d *document) {
		var watcher *watch.Watcher
		if d.path != "" && !opts.noWatch {
			var err error
			watcher, err = watch.New(ctx, d.path, func() { reload(d) }, watch.Options{})
			if err != nil {
				sess.log.Warn("not watching document", "path", d.path, "error", err)
			}
		}
		if old := ws.replace(d, watcher); old != nil {
			old.Close()
		}
		w.SetTitle("ghll - " + d.buffer.Name())
		redraw()
		recompute(highlight.TriggerDocumentActivated)
	}

	// applySetting saves the stored settings and recomputes. Rejected input
	// restores the entry to the current value.
	applySetting := func(key, raw string, entry *widget.Entry) {
		mu.Lock()
		updated, err := current.with(key, raw)
		if err == nil {
			current = updated
		}
		mu.Unlock()

		if err != nil {
			sess.log.Debug("setting input ignored", "key", key, "value", raw, "error", err)
			if entry != nil {
				v, _ := snapshot().Get(key)
				entry.SetText(v)
			}
			return
		}
		if err := sess.store.Save(updated.stored); err != nil {
			sess.log.Warn("failed to save settings", "error", err)
			statusLabel.SetText("Settings not saved: " + err.Error())
		}
		recompute(highlight.TriggerSettingsChanged)
	}

	settingEntry := func(key string) *widget.Entry {
		e := widget.NewEntry()
		v, _ := sess.profile.effective.Get(key)
		e.SetText(v)
		e.OnSubmitted = func(raw string) { applySetting(key, raw, e) }
		return e
	}
	maxWords := settingEntry(settings.KeyMaxWords)
	maxChars := settingEntry(settings.KeyMaxChars)
	colorEntry := settingEntry(settings.KeyHighlightColor)

	mode := widget.NewSelect([]string{string(settings.ModeSentences), string(settings.ModeLines)}, nil)
	mode.SetSelected(string(sess.profile.effective.Mode))
	mode.OnChanged = func(v string) { applySetting(settings.KeyMode, v, nil) }

	highlightButton := widget.NewButton("Highlight", func() {
		recompute(highlight.TriggerCommand)
	})
	openButton := widget.NewButton("Open…", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			rc.Close()
			d, err := openFile(path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			activate(d)
		}, w)
	})

	form := container.NewGridWithColumns(4,
		widget.NewLabel("Max words"), maxWords,
		widget.NewLabel("Max chars"), maxChars,
		widget.NewLabel("Colour"), colorEntry,
		widget.NewLabel("Mode"), mode,
	)
	toolbar := container.NewBorder(nil, nil, openButton, highlightButton, form)

	w.SetContent(container.NewBorder(toolbar, statusLabel, nil, nil, scroll))
	w.Resize(fyne.NewSize(900, 700))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyH,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) {
		recompute(highlight.TriggerCommand)
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) {
		a.Quit()
	})

	w.SetOnClosed(func() {
		if old := ws.replace(nil, nil); old != nil {
			old.Close()
		}
	})

	if doc.buffer != nil {
		activate(doc)
	}

	w.ShowAndRun()
	return nil
}

func main() {
	execute("ghll", runGUI)
}
