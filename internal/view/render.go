package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/hll/internal/highlight"
	"github.com/metcalfc/hll/internal/settings"
	"github.com/rivo/uniseg"
)

// Row is one visual line: a byte range of the text without its line break.
type Row struct {
	Start int
	End   int
}

// Layout splits text into rows no wider than width terminal cells, breaking
// after spaces where possible. Spaces may hang past the edge. A width below
// one disables wrapping.
func Layout(text string, width int) []Row {
	var rows []Row
	lineStart := 0
	for {
		nl := strings.IndexByte(text[lineStart:], '\n')
		lineEnd := len(text)
		if nl >= 0 {
			lineEnd = lineStart + nl
		}
		line := strings.TrimSuffix(text[lineStart:lineEnd], "\r")
		rows = append(rows, wrapLine(line, lineStart, width)...)
		if nl < 0 {
			return rows
		}
		lineStart = lineEnd + 1
	}
}

func wrapLine(line string, base, width int) []Row {
	if width < 1 || line == "" {
		return []Row{{Start: base, End: base + len(line)}}
	}

	var rows []Row
	start, pos, col := 0, 0, 0
	lastBreak, colAtBreak := -1, 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		space := cluster == " " || cluster == "\t"
		if col+w > width && pos > start && !space {
			if lastBreak > start {
				rows = append(rows, Row{Start: base + start, End: base + lastBreak})
				start = lastBreak
				col -= colAtBreak
			} else {
				rows = append(rows, Row{Start: base + start, End: base + pos})
				start = pos
				col = 0
			}
			lastBreak = -1
		}
		col += w
		pos += len(cluster)
		if space {
			lastBreak, colAtBreak = pos, col
		}
	}
	return append(rows, Row{Start: base + start, End: base + len(line)})
}

// RowOf returns the index of the row containing offset.
func RowOf(rows []Row, offset int) int {
	for i := len(rows) - 1; i > 0; i-- {
		if rows[i].Start <= offset {
			return i
		}
	}
	return 0
}

// HighlightStyle returns the lipgloss style for a highlight colour string.
// Unparsable colours fall back to the default colour.
func HighlightStyle(color string) lipgloss.Style {
	c, err := settings.ParseColor(color)
	if err != nil {
		c, _ = settings.ParseColor(settings.DefaultHighlightColor)
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.TerminalHex())).
		Foreground(lipgloss.Color("#000000"))
}

// Render lays out text at width and paints every range of set with style.
func Render(text string, set highlight.Set, width int, style lipgloss.Style) string {
	rows := Layout(text, width)
	lines := make([]string, len(rows))
	next := 0
	for i, row := range rows {
		for next < len(set) && set[next].To <= row.Start {
			next++
		}
		lines[i] = renderRow(text, row, set[next:], style)
	}
	return strings.Join(lines, "\n")
}

func renderRow(text string, row Row, set highlight.Set, style lipgloss.Style) string {
	var sb strings.Builder
	pos := row.Start
	for _, r := range set {
		if r.From >= row.End {
			break
		}
		from, to := max(r.From, row.Start), min(r.To, row.End)
		if from > len(text) || to > len(text) {
			break
		}
		sb.WriteString(text[pos:from])
		if to > from {
			sb.WriteString(style.Render(text[from:to]))
		}
		pos = to
	}
	sb.WriteString(text[pos:row.End])
	return sb.String()
}
