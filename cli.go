package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/logger"
	"github.com/metcalfc/hll/internal/reader"
	"github.com/metcalfc/hll/internal/settings"
	"github.com/metcalfc/hll/internal/view"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	maxWords   int
	color      string
	mode       string
	maxChars   int
	logLevel   string
	logFile    string
	logJSON    bool
	noWatch    bool
}

// overrideFlags maps flag names to the setting they override for one run.
var overrideFlags = map[string]string{
	"max-words": settings.KeyMaxWords,
	"color":     settings.KeyHighlightColor,
	"mode":      settings.KeyMode,
	"max-chars": settings.KeyMaxChars,
}

// session is everything a command needs once flags are parsed.
type session struct {
	store    *settings.FileStore
	profile  profile
	log      logger.Logger
	closeLog func()
}

// profile pairs the settings as loaded with the effective settings of this
// run, which also carry the flag overrides. Only stored is ever saved.
type profile struct {
	stored    settings.Settings
	effective settings.Settings
}

// with applies one edit to both copies.
func (p profile) with(key, raw string) (profile, error) {
	effective, err := p.effective.With(key, raw)
	if err != nil {
		return p, err
	}
	stored, err := p.stored.With(key, raw)
	if err != nil {
		return p, err
	}
	return profile{stored: stored, effective: effective}, nil
}

// interactiveFunc runs the host UI for an optional document.
type interactiveFunc func(ctx context.Context, sess *session, opts *options, doc *document) error

// document is an opened input: a buffer and, for files, the path to watch.
type document struct {
	buffer *view.Buffer
	path   string
}

func newRootCmd(name string, run interactiveFunc) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   name + " [file]",
		Short: "Highlight long sentences and lines in a document",
		Long: "Highlight long sentences and lines in a document.\n\n" +
			"Supported formats: plain text, " + strings.Join(reader.SupportedFormats(), ", "),
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.Join([]string{
			"  " + name + " notes.md              Open a file and highlight long sentences",
			"  " + name + " -n 20 book.epub       Highlight sentences over 20 words",
			"  " + name + " --mode lines main.txt Highlight lines over 100 characters",
			"  cat draft.txt | " + name + "       Read from stdin",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, true)
			if err != nil {
				return err
			}
			defer sess.closeLog()

			doc, err := openInput(args)
			if err != nil {
				return err
			}
			return run(logger.ContextWithLogger(cmd.Context(), sess.log), sess, opts, doc)
		},
	}
	root.SetVersionTemplate(name + " {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "settings file (default "+settings.DefaultPath()+")")
	flags.IntVarP(&opts.maxWords, "max-words", "n", settings.DefaultMaxWords, "highlight sentences with more words than this")
	flags.StringVar(&opts.color, "color", settings.DefaultHighlightColor, "highlight colour: rgba(), rgb() or #hex")
	flags.StringVar(&opts.mode, "mode", string(settings.ModeSentences), "what to measure: sentences or lines")
	flags.IntVar(&opts.maxChars, "max-chars", settings.DefaultMaxChars, "highlight lines with more characters than this (lines mode)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "append logs to this file")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	root.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not reload the file when it changes on disk")

	root.AddCommand(newReportCmd(opts), newMarkCmd(opts), newConfigCmd(opts))
	return root
}

// execute runs the root command and exits non-zero on error.
func execute(name string, run interactiveFunc) {
	if err := newRootCmd(name, run).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSession sets up logging and loads settings with flag overrides.
// Interactive sessions log nowhere unless --log-file is set.
func openSession(cmd *cobra.Command, opts *options, interactive bool) (*session, error) {
	log, closeLog, err := setupLogger(opts, interactive, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	store := settings.NewFileStore(opts.configPath, settings.WithLogger(log))
	stored, err := store.Load()
	if err != nil {
		log.Warn("using default settings", "error", err)
	}
	effective, err := applyOverrides(cmd.Flags(), stored)
	if err != nil {
		closeLog()
		return nil, err
	}
	return &session{
		store:    store,
		profile:  profile{stored: stored, effective: effective},
		log:      log,
		closeLog: closeLog,
	}, nil
}

func setupLogger(opts *options, interactive bool, stderr io.Writer) (logger.Logger, func(), error) {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(opts.logLevel)
	cfg.JSON = opts.logJSON
	cfg.Output = stderr
	closeFn := func() {}

	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file '%s': %w", opts.logFile, err)
		}
		cfg.Output = f
		closeFn = func() { f.Close() }
	case interactive:
		cfg.Output = io.Discard
	}
	return logger.NewLogger(cfg), closeFn, nil
}

// applyOverrides applies flags the user set explicitly. They are not saved.
func applyOverrides(flags *pflag.FlagSet, s settings.Settings) (settings.Settings, error) {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := overrideFlags[f.Name]
		if !ok || err != nil {
			return
		}
		s, err = s.With(key, f.Value.String())
		if err != nil {
			err = fmt.Errorf("--%s: %w", f.Name, err)
		}
	})
	return s, err
}

// openInput opens the file argument, or stdin when it is piped. With neither
// it returns an empty document so the host can start without one.
func openInput(args []string) (*document, error) {
	if len(args) > 0 {
		return openFile(args[0])
	}

	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return &document{}, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return &document{buffer: view.NewBuffer("stdin", string(data))}, nil
}

func openFile(filename string) (*document, error) {
	text, err := reader.ExtractText(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", filename, err)
	}
	doc := &document{buffer: view.NewBuffer(filename, text)}
	// Only plain and Markdown files map one to one onto disk contents.
	if f, ok := reader.Lookup(filename); !ok || f.Name() == "Markdown" {
		doc.path = filename
	}
	return doc, nil
}

// highlightFile runs one recompute over a file through the same reconciler
// the interactive hosts use.
func highlightFile(ctx context.Context, sess *session, filename string) (string, highlight.Set, error) {
	doc, err := openFile(filename)
	if err != nil {
		return "", nil, err
	}
	r := highlight.NewReconciler(highlight.WorkspaceFunc(func() highlight.Document {
		return doc.buffer
	}), sess.log)
	set, err := r.Recompute(ctx, highlight.TriggerCommand, sess.profile.effective)
	if err != nil {
		return "", nil, err
	}
	return doc.buffer.Snapshot().Text, set, nil
}

type reportEntry struct {
	highlight.Finding
	Section string `json:"section,omitempty"`
}

func newReportCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "List the long sentences of a file with their positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, false)
			if err != nil {
				return err
			}
			defer sess.closeLog()

			text, set, err := highlightFile(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			entries := buildReport(args[0], text, set)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(entries, sess.profile.effective))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")
	return cmd
}

func buildReport(filename, text string, set highlight.Set) []reportEntry {
	var sections []reader.Section
	if f, ok := reader.Lookup(filename); ok {
		if sp, ok := f.(reader.SectionProvider); ok {
			sections = sp.Sections(text)
		}
	}
	findings := highlight.Describe(text, set)
	entries := make([]reportEntry, 0, len(findings))
	for _, f := range findings {
		e := reportEntry{Finding: f}
		if s, ok := reader.SectionAt(sections, f.Range.From); ok {
			e.Section = s.Title
		}
		entries = append(entries, e)
	}
	return entries
}

var reportHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func renderReport(entries []reportEntry, s settings.Settings) string {
	unit := "words"
	if s.Mode == settings.ModeLines {
		unit = "chars"
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No %s over %d %s.", s.Mode, s.Threshold(), unit)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LINE", "COL", strings.ToUpper(unit), "SECTION", "TEXT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return reportHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, e := range entries {
		size := e.Words
		if s.Mode == settings.ModeLines {
			size = e.Chars
		}
		t.Row(
			fmt.Sprint(e.Line),
			fmt.Sprint(e.Column),
			fmt.Sprint(size),
			e.Section,
			truncate(e.Text, 60),
		)
	}
	return t.Render() + fmt.Sprintf("\n%d %s over %d %s.", len(entries), s.Mode, s.Threshold(), unit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newMarkCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "mark <file>",
		Short: "Print the file with long sentences wrapped in ==markers==",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, false)
			if err != nil {
				return err
			}
			defer sess.closeLog()

			text, set, err := highlightFile(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			marked := highlight.Mark(text, set)
			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), marked)
				return err
			}
			if err := os.WriteFile(output, []byte(marked), 0644); err != nil {
				return err
			}
			sess.log.Info("marked file written", "path", output, "ranges", len(set))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, opts, false)
			if err != nil {
				return err
			}
			defer sess.closeLog()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", sess.store.Path())
			for _, key := range settings.Keys() {
				v, _ := sess.profile.effective.Get(key)
				fmt.Fprintf(out, "%s = %s\n", key, v)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change and save a setting (" + strings.Join(settings.Keys(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, false)
			if err != nil {
				return err
			}
			defer sess.closeLog()

			updated, err := sess.profile.with(args[0], args[1])
			if err != nil {
				return err
			}
			if err := sess.store.Save(updated.stored); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			v, _ := updated.stored.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}

// noticeFor turns a recompute error into the text shown to the user. An
// empty string means nothing should be shown.
func noticeFor(err error) string {
	switch {
	case err == nil, errors.Is(err, highlight.ErrSuperseded):
		return ""
	case errors.Is(err, highlight.ErrNoActiveDocument):
		return "No active document to highlight."
	case errors.Is(err, highlight.ErrEditorUnavailable):
		return "Document unavailable: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// summary describes a successful recompute.
func summary(set highlight.Set, s settings.Settings) string {
	unit := "words"
	if s.Mode == settings.ModeLines {
		unit = "characters"
	}
	noun := "sentences"
	if s.Mode == settings.ModeLines {
		noun = "lines"
	}
	return fmt.Sprintf("Highlighted %d %s longer than %d %s.", len(set), noun, s.Threshold(), unit)
}
