package reader

// Section is a heading and the byte offset where it starts in the text.
type Section struct {
	Title  string
	Level  int
	Offset int
}

// SectionProvider is an optional interface for formats that know their
// headings.
type SectionProvider interface {
	Sections(text string) []Section
}

// SectionAt returns the last section starting at or before offset.
func SectionAt(sections []Section, offset int) (Section, bool) {
	for i := len(sections) - 1; i >= 0; i-- {
		if sections[i].Offset <= offset {
			return sections[i], true
		}
	}
	return Section{}, false
}
