package errors

import (
	"fmt"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	be, ok := As(err)
	if !ok {
		be = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", be.Message))
	if be.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", be.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", be.Code))

	return sb.String()
}

// FormatForLog returns slog key-value pairs describing err, for use as
// slog.Warn("msg", errors.FormatForLog(err)...).
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	be, ok := As(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", be.Code,
		"error", be.Message,
		"category", string(be.Category),
		"retryable", be.Retryable,
	}
	if be.Cause != nil && be.Cause.Error() != be.Message {
		attrs = append(attrs, "cause", be.Cause.Error())
	}

	// Stable attribute order keeps log lines diffable.
	keys := make([]string, 0, len(be.Details))
	for k := range be.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, "detail_"+k, be.Details[k])
	}

	return attrs
}
