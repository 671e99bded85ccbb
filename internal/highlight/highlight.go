// Package highlight resolves long spans to byte ranges in the document text
// and pushes them to a document as one replace-all update.
package highlight

import (
	"strings"

	"github.com/metcalfc/hll/internal/segment"
	"github.com/metcalfc/hll/internal/settings"
)

// Range is a half-open [From, To) byte range into the text snapshot it was
// computed from.
type Range struct {
	From int
	To   int
}

// Len returns the range length in bytes.
func (r Range) Len() int {
	return r.To - r.From
}

// Set is an ordered, non-overlapping list of ranges in document order.
type Set []Range

// Contains reports whether offset lies inside one of the ranges.
func (s Set) Contains(offset int) bool {
	for _, r := range s {
		if offset < r.From {
			return false
		}
		if offset < r.To {
			return true
		}
	}
	return false
}

// Detect returns the long spans of text for the mode and threshold in s.
func Detect(text string, s settings.Settings) []segment.Span {
	if s.Mode == settings.ModeLines {
		return segment.LongLines(text, s.MaxChars)
	}
	return segment.LongSpans(text, s.MaxWords)
}

// Compute runs detection and location on text.
func Compute(text string, s settings.Settings) Set {
	set, _ := locate(text, Detect(text, s))
	return set
}

// Locate finds each span in text, searching forward from the end of the
// previous match so repeated sentences map to distinct occurrences. Spans
// that cannot be found are dropped.
func Locate(text string, spans []segment.Span) Set {
	set, _ := locate(text, spans)
	return set
}

// locate is Locate that also returns the spans it could not place.
func locate(text string, spans []segment.Span) (Set, []segment.Span) {
	set := Set{}
	var missed []segment.Span
	pos := 0
	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		i := strings.Index(text[pos:], span.Text)
		if i < 0 {
			missed = append(missed, span)
			continue
		}
		from := pos + i
		to := from + len(span.Text)
		set = append(set, Range{From: from, To: to})
		pos = to
	}
	return set, missed
}
