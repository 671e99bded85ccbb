package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = "# Intro\n\nShort one. This sentence clearly has more than ten words in it for sure today.\n"

// execCLI runs the command line with a private settings file.
func execCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd("hll", func(context.Context, *session, *options, *document) error {
		return errors.New("interactive host not available in tests")
	})
	root.SetArgs(append([]string{"--config", configPath}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSample(t *testing.T) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	file = filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(file, []byte(sampleMarkdown), 0644))
	return dir, file
}

func TestReportCommand(t *testing.T) {
	t.Run("Should list findings as JSON", func(t *testing.T) {
		dir, file := writeSample(t)
		out, err := execCLI(t, filepath.Join(dir, "settings.json"), "report", "--json", file)
		require.NoError(t, err)

		var entries []reportEntry
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, highlight.Range{From: 20, To: 87}, entries[0].Range)
		assert.Equal(t, 3, entries[0].Line)
		assert.Equal(t, 12, entries[0].Column)
		assert.Equal(t, 13, entries[0].Words)
		assert.Equal(t, "Intro", entries[0].Section)
	})

	t.Run("Should render a table", func(t *testing.T) {
		dir, file := writeSample(t)
		out, err := execCLI(t, filepath.Join(dir, "settings.json"), "report", file)
		require.NoError(t, err)
		assert.Contains(t, out, "Intro")
		assert.Contains(t, out, "1 sentences over 10 words.")
	})

	t.Run("Should honour per-run overrides", func(t *testing.T) {
		dir, file := writeSample(t)
		out, err := execCLI(t, filepath.Join(dir, "settings.json"), "report", "--max-words", "20", file)
		require.NoError(t, err)
		assert.Contains(t, out, "No sentences over 20 words.")
	})

	t.Run("Should reject invalid overrides", func(t *testing.T) {
		dir, file := writeSample(t)
		_, err := execCLI(t, filepath.Join(dir, "settings.json"), "report", "--max-words", "0", file)
		assert.ErrorIs(t, err, settings.ErrInvalidSettingValue)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		dir := t.TempDir()
		_, err := execCLI(t, filepath.Join(dir, "settings.json"), "report", filepath.Join(dir, "nope.txt"))
		assert.Error(t, err)
	})
}

func TestMarkCommand(t *testing.T) {
	want := "# Intro\n\nShort one. ==This sentence clearly has more than ten words in it for sure today.==\n"

	t.Run("Should print marked text", func(t *testing.T) {
		dir, file := writeSample(t)
		out, err := execCLI(t, filepath.Join(dir, "settings.json"), "mark", file)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})

	t.Run("Should write marked text to a file", func(t *testing.T) {
		dir, file := writeSample(t)
		target := filepath.Join(dir, "marked.md")
		out, err := execCLI(t, filepath.Join(dir, "settings.json"), "mark", "-o", target, file)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	})
}

func TestConfigCommand(t *testing.T) {
	t.Run("Should print defaults", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "settings.json")
		out, err := execCLI(t, cfg, "config")
		require.NoError(t, err)
		assert.Contains(t, out, "# "+cfg)
		assert.Contains(t, out, fmt.Sprintf("maxWords = %d", settings.DefaultMaxWords))
		assert.Contains(t, out, "mode = sentences")
	})

	t.Run("Should save a setting", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "settings.json")
		out, err := execCLI(t, cfg, "config", "set", "maxWords", "5")
		require.NoError(t, err)
		assert.Equal(t, "maxWords = 5\n", out)

		out, err = execCLI(t, cfg, "config")
		require.NoError(t, err)
		assert.Contains(t, out, "maxWords = 5")
	})

	t.Run("Should not persist per-run overrides", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "settings.json")
		_, err := execCLI(t, cfg, "--max-chars", "40", "config", "set", "mode", "lines")
		require.NoError(t, err)

		out, err := execCLI(t, cfg, "config")
		require.NoError(t, err)
		assert.Contains(t, out, "mode = lines")
		assert.Contains(t, out, fmt.Sprintf("maxChars = %d", settings.DefaultMaxChars))
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "settings.json")
		_, err := execCLI(t, cfg, "config", "set", "maxWords", "0")
		assert.ErrorIs(t, err, settings.ErrInvalidSettingValue)
		_, err = os.Stat(cfg)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestNoticeFor(t *testing.T) {
	assert.Empty(t, noticeFor(nil))
	assert.Empty(t, noticeFor(highlight.ErrSuperseded))
	assert.Equal(t, "No active document to highlight.", noticeFor(highlight.ErrNoActiveDocument))
	assert.Contains(t, noticeFor(fmt.Errorf("%w: read text", highlight.ErrEditorUnavailable)), "Document unavailable")
}

func TestSummary(t *testing.T) {
	s := settings.Defaults()
	assert.Equal(t, "Highlighted 2 sentences longer than 10 words.", summary(make(highlight.Set, 2), s))
	assert.Equal(t, "Highlighted 0 lines longer than 100 characters.", summary(nil, s.ToggleMode()))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo…", truncate("héllo wörld", 6))
}

func TestProfileWith(t *testing.T) {
	effective := settings.Defaults()
	effective.MaxChars = 40
	p := profile{stored: settings.Defaults(), effective: effective}

	t.Run("Should apply an edit to both copies", func(t *testing.T) {
		got, err := p.with(settings.KeyMaxWords, "5")
		require.NoError(t, err)
		assert.Equal(t, 5, got.stored.MaxWords)
		assert.Equal(t, 5, got.effective.MaxWords)
		assert.Equal(t, 40, got.effective.MaxChars)
		assert.Equal(t, settings.DefaultMaxChars, got.stored.MaxChars)
	})

	t.Run("Should leave both copies on invalid input", func(t *testing.T) {
		got, err := p.with(settings.KeyMaxWords, "zero")
		assert.ErrorIs(t, err, settings.ErrInvalidSettingValue)
		assert.Equal(t, p, got)
	})
}
