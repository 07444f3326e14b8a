// Package chunk splits extracted document text into paragraph chunks.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the shortest paragraph, in characters, kept as a chunk.
const DefaultMinLength = 11

// Split breaks text into paragraphs separated by blank lines (lines that are
// empty after trimming whitespace). Each paragraph is trimmed, and those with
// fewer than minLen characters are dropped. Paragraph order is preserved.
func Split(text string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		chunks  []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if utf8.RuneCountInString(p) >= minLen {
			chunks = append(chunks, p)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return chunks
}
