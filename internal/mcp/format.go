package mcp

import (
	"strings"

	"github.com/Aman-CERP/brainlib/internal/library"
)

// NoResultsMessage is returned when a search finds nothing.
const NoResultsMessage = "No matching information found."

// FormatResults renders results as "[source] content" entries separated by
// blank lines, or NoResultsMessage when there are none.
func FormatResults(results []library.Result) string {
	if len(results) == 0 {
		return NoResultsMessage
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(r.Source)
		sb.WriteString("] ")
		sb.WriteString(r.Content)
	}
	return sb.String()
}
