//go:build !gui

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/logger"
	"github.com/metcalfc/hll/internal/reader"
	"github.com/metcalfc/hll/internal/settings"
	"github.com/metcalfc/hll/internal/view"
	"github.com/metcalfc/hll/internal/watch"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)
)

const controlsHelp = "h: highlight  n/N: next/prev  w: words  l: chars  m: mode  c: colour  q: quit"

// prompts labels the settings that can be edited from the keyboard.
var prompts = map[string]string{
	settings.KeyMaxWords:       "Max words per sentence: ",
	settings.KeyMaxChars:       "Max characters per line: ",
	settings.KeyHighlightColor: "Highlight colour: ",
}

type highlightedMsg struct {
	trigger highlight.Trigger
	set     highlight.Set
	err     error
}

// documentChangedMsg is sent by the file watcher.
type documentChangedMsg struct{}

type reloadedMsg struct {
	text string
	err  error
}

type model struct {
	ctx        context.Context
	buffer     *view.Buffer
	path       string
	reconciler *highlight.Reconciler
	store      settings.Store
	profile    profile
	log        logger.Logger

	viewport viewport.Model
	input    textinput.Model
	editing  string
	notice   string
	rows     []view.Row
	current  int
	width    int
	height   int
	quitting bool
}

func newModel(ctx context.Context, buf *view.Buffer, path string, store settings.Store, p profile, log logger.Logger) model {
	// A nil *view.Buffer must not become a non-nil Document.
	var doc highlight.Document
	if buf != nil {
		doc = buf
	}
	input := textinput.New()
	input.CharLimit = 64

	m := model{
		ctx:    ctx,
		buffer: buf,
		path:   path,
		reconciler: highlight.NewReconciler(highlight.WorkspaceFunc(func() highlight.Document {
			return doc
		}), log),
		store:    store,
		profile:  p,
		log:      log,
		viewport: viewport.New(80, 22),
		input:    input,
		current:  -1,
		width:    80,
		height:   24,
	}
	if buf == nil {
		m.notice = "No document open. Pass a file or pipe text to stdin."
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	if m.buffer == nil {
		return nil
	}
	return m.recompute(highlight.TriggerDocumentActivated)
}

// recompute runs the reconciler off the UI goroutine with a snapshot of the
// current settings.
func (m model) recompute(trigger highlight.Trigger) tea.Cmd {
	ctx, r, s := m.ctx, m.reconciler, m.profile.effective
	return func() tea.Msg {
		set, err := r.Recompute(ctx, trigger, s)
		return highlightedMsg{trigger: trigger, set: set, err: err}
	}
}

func (m model) reload() tea.Cmd {
	path := m.path
	return func() tea.Msg {
		text, err := reader.ExtractText(path)
		return reloadedMsg{text: text, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing != "" {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		// Reserve 2 lines: 1 for status at top, 1 for controls at bottom
		m.viewport.Height = max(msg.Height-2, 1)
		m.refresh()
		return m, nil

	case highlightedMsg:
		if msg.err != nil {
			if notice := noticeFor(msg.err); notice != "" {
				m.notice = notice
			}
			m.log.Debug("recompute not applied", "trigger", msg.trigger, "error", msg.err)
			return m, nil
		}
		m.notice = summary(msg.set, m.profile.effective)
		m.current = -1
		m.refresh()
		return m, nil

	case documentChangedMsg:
		if m.buffer == nil || m.path == "" {
			return m, nil
		}
		return m, m.reload()

	case reloadedMsg:
		if msg.err != nil {
			m.notice = "Failed to reload: " + msg.err.Error()
			return m, nil
		}
		m.buffer.SetText(msg.text)
		m.refresh()
		return m, m.recompute(highlight.TriggerDocumentChanged)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h":
		if m.buffer == nil {
			m.notice = noticeFor(highlight.ErrNoActiveDocument)
			return m, nil
		}
		return m, m.recompute(highlight.TriggerCommand)

	case "w":
		return m.startEditing(settings.KeyMaxWords)

	case "l":
		return m.startEditing(settings.KeyMaxChars)

	case "c":
		return m.startEditing(settings.KeyHighlightColor)

	case "m":
		return m.applySetting(settings.KeyMode, string(m.profile.effective.ToggleMode().Mode))

	case "n", "right":
		m.jump(1)
		return m, nil

	case "N", "left":
		m.jump(-1)
		return m, nil

	case "q", "Q", "ctrl+c":
		m.quitting = true
		if m.buffer != nil {
			m.buffer.Close()
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) startEditing(key string) (tea.Model, tea.Cmd) {
	value, _ := m.profile.effective.Get(key)
	m.editing = key
	m.input.Prompt = prompts[key]
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = ""
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		key, raw := m.editing, m.input.Value()
		m.editing = ""
		m.input.Blur()
		return m.applySetting(key, raw)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applySetting edits one setting, saves the stored settings and recomputes.
// Every accepted change recomputes, a colour-only change included. Rejected
// input keeps the previous value without a notice.
func (m model) applySetting(key, raw string) (tea.Model, tea.Cmd) {
	updated, err := m.profile.with(key, raw)
	if err != nil {
		m.log.Debug("setting input ignored", "key", key, "value", raw, "error", err)
		return m, nil
	}
	m.profile = updated
	if err := m.store.Save(updated.stored); err != nil {
		m.log.Warn("failed to save settings", "error", err)
		m.notice = "Settings not saved: " + err.Error()
	}
	if m.buffer == nil {
		return m, nil
	}
	return m, m.recompute(highlight.TriggerSettingsChanged)
}

// jump scrolls to the next (dir > 0) or previous highlighted range.
func (m *model) jump(dir int) {
	if m.buffer == nil {
		return
	}
	set := m.buffer.Snapshot().Set
	if len(set) == 0 {
		return
	}
	next := m.current + dir
	if m.current < 0 && dir < 0 {
		next = len(set) - 1
	}
	if next < 0 || next >= len(set) {
		return
	}
	m.current = next
	m.viewport.SetYOffset(view.RowOf(m.rows, set[next].From))
}

// refresh re-renders the document into the viewport.
func (m *model) refresh() {
	if m.buffer == nil {
		m.rows = nil
		m.viewport.SetContent("")
		return
	}
	snap := m.buffer.Snapshot()
	m.rows = view.Layout(snap.Text, m.viewport.Width)
	m.viewport.SetContent(view.Render(snap.Text, snap.Set, m.viewport.Width, view.HighlightStyle(snap.Color)))
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	switch {
	case m.editing != "":
		sb.WriteString(promptStyle.Render(m.input.View()))
	case m.notice != "":
		sb.WriteString(noticeStyle.Render(m.notice) + "  " + controlsStyle.Render(controlsHelp))
	default:
		sb.WriteString(controlsStyle.Render(controlsHelp))
	}
	return sb.String()
}

func (m model) statusLine() string {
	if m.buffer == nil {
		return statusStyle.Render("hll | no document")
	}
	snap := m.buffer.Snapshot()
	limit := fmt.Sprintf("> %d words", m.profile.effective.MaxWords)
	if m.profile.effective.Mode == settings.ModeLines {
		limit = fmt.Sprintf("> %d chars", m.profile.effective.MaxChars)
	}
	position := ""
	if m.current >= 0 {
		position = fmt.Sprintf("%d/", m.current+1)
	}
	return statusStyle.Render(fmt.Sprintf("%s | %s%d long %s | %s | %.0f%%",
		snap.Name,
		position,
		len(snap.Set),
		m.profile.effective.Mode,
		limit,
		m.viewport.ScrollPercent()*100,
	))
}

func runTUI(ctx context.Context, sess *session, opts *options, doc *document) error {
	m := newModel(ctx, doc.buffer, doc.path, sess.store, sess.profile, sess.log)

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if doc.buffer != nil && doc.path == "" && doc.buffer.Name() == "stdin" {
		// stdin carried the document, so keys come from the terminal.
		programOpts = append(programOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(m, programOpts...)

	if doc.path != "" && !opts.noWatch {
		w, err := watch.New(ctx, doc.path, func() { p.Send(documentChangedMsg{}) }, watch.Options{})
		if err != nil {
			sess.log.Warn("not watching document", "path", doc.path, "error", err)
		} else {
			defer w.Close()
		}
	}

	_, err := p.Run()
	return err
}

func main() {
	execute("hll", runTUI)
}
