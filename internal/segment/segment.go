// Package segment splits document text into sentence-like spans and picks out
// the ones that are too long to read comfortably.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a contiguous piece of document text. It carries no position; the
// highlight package finds it again in the source text.
type Span struct {
	Text string
}

// Words returns the number of whitespace separated tokens in the span.
func (s Span) Words() int {
	return WordCount(s.Text)
}

// Runes returns the span length in characters.
func (s Span) Runes() int {
	return utf8.RuneCountInString(s.Text)
}

// WordCount counts whitespace separated tokens. Leading and trailing
// whitespace never produces empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Segment splits text into spans in document order.
//
// A run of whitespace is a delimiter when it follows a sentence terminator
// ('.', '!' or '?') or when it contains a newline. Delimiters are consumed;
// the terminator stays on the span before it. Whitespace at either end of the
// text is dropped, and spans that hold nothing but whitespace are skipped.
func Segment(text string) []Span {
	var spans []Span
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			i += size
			continue
		}

		end, newline := whitespaceRun(text, i)
		if i == 0 || end == len(text) || newline || isTerminator(text[i-1]) {
			spans = appendSpan(spans, text[start:i])
			start = end
		}
		i = end
	}
	return appendSpan(spans, text[start:])
}

// Lines splits text at newlines. A trailing carriage return is not part of
// the line. Empty lines are skipped; lines of only spaces are kept, since
// they can still be too long.
func Lines(text string) []Span {
	var spans []Span
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSuffix(line, "\r"); line != "" {
			spans = append(spans, Span{Text: line})
		}
	}
	return spans
}

// IsLong reports whether span has more than maxWords words. A threshold
// below one is treated as one.
func IsLong(span Span, maxWords int) bool {
	return span.Words() > clamp(maxWords)
}

// LongSpans returns the sentence spans of text with more than maxWords
// words, in document order.
func LongSpans(text string, maxWords int) []Span {
	var long []Span
	for _, span := range Segment(text) {
		if IsLong(span, maxWords) {
			long = append(long, span)
		}
	}
	return long
}

// LongLines returns the lines of text longer than maxChars characters.
func LongLines(text string, maxChars int) []Span {
	limit := clamp(maxChars)
	var long []Span
	for _, line := range Lines(text) {
		if line.Runes() > limit {
			long = append(long, line)
		}
	}
	return long
}

// whitespaceRun returns the end of the whitespace run starting at i and
// whether the run crosses a line break.
func whitespaceRun(text string, i int) (int, bool) {
	newline := false
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		if r == '\n' {
			newline = true
		}
		i += size
	}
	return i, newline
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func appendSpan(spans []Span, text string) []Span {
	if strings.TrimSpace(text) == "" {
		return spans
	}
	return append(spans, Span{Text: text})
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
