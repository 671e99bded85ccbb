package reader

import (
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Extract returns the raw Markdown so highlight offsets match the file.
func (f *MarkdownFormat) Extract(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

// Sections returns the ATX headings of text with their byte offsets.
func (f *MarkdownFormat) Sections(text string) []Section {
	var sections []Section
	offset := 0
	inFence := false
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(strings.TrimSpace(trimmed), "```") {
			inFence = !inFence
		}
		if !inFence {
			if match := headerRegex.FindStringSubmatch(trimmed); match != nil {
				sections = append(sections, Section{
					Title:  match[2],
					Level:  len(match[1]) - 1, // h1 = level 0, h2 = level 1, etc.
					Offset: offset,
				})
			}
		}
		offset += len(line)
	}
	return sections
}
