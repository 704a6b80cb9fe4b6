// Package adapterutil provides shared utilities for channel adapters.
package adapterutil

import "strings"

const summaryLimit = 120

// SummarizeText returns a single-line preview of text for logs, limited to 120 runes.
func SummarizeText(text string) string {
	value := strings.Join(strings.Fields(text), " ")
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= summaryLimit {
		return value
	}
	return string(runes[:summaryLimit]) + "..."
}
