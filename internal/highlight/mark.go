package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/metcalfc/hll/internal/segment"
)

// MarkDelimiter is the Markdown highlight syntax wrapped around each range.
const MarkDelimiter = "=="

// Mark returns text with every range wrapped in MarkDelimiter.
func Mark(text string, set Set) string {
	var sb strings.Builder
	sb.Grow(len(text) + len(set)*2*len(MarkDelimiter))
	pos := 0
	for _, r := range set {
		sb.WriteString(text[pos:r.From])
		sb.WriteString(MarkDelimiter)
		sb.WriteString(text[r.From:r.To])
		sb.WriteString(MarkDelimiter)
		pos = r.To
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// Finding describes one highlighted range for reports.
type Finding struct {
	Range  Range  `json:"range"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Words  int    `json:"words"`
	Chars  int    `json:"chars"`
	Text   string `json:"text"`
}

// Describe returns a Finding per range with 1-based line and column. Columns
// count characters, not bytes.
func Describe(text string, set Set) []Finding {
	findings := make([]Finding, 0, len(set))
	line, lineStart, pos := 1, 0, 0
	for _, r := range set {
		for pos < r.From {
			if text[pos] == '\n' {
				line++
				lineStart = pos + 1
			}
			pos++
		}
		span := text[r.From:r.To]
		findings = append(findings, Finding{
			Range:  r,
			Line:   line,
			Column: utf8.RuneCountInString(text[lineStart:r.From]) + 1,
			Words:  segment.WordCount(span),
			Chars:  utf8.RuneCountInString(span),
			Text:   span,
		})
	}
	return findings
}
