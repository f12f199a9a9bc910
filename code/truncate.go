package code

import "fmt"

// TruncationMarker is appended to output that was cut down to fit its budget.
const TruncationMarker = "...[truncated]"

// Truncate bounds s to at most limit runes, appending TruncationMarker when
// anything was dropped. It returns the bounded string and the original rune
// length so callers can report how much output the code really produced.
// A limit <= 0 disables truncation.
func Truncate(s string, limit int) (string, int) {
	runes := []rune(s)
	n := len(runes)
	if limit <= 0 || n <= limit {
		return s, n
	}
	marker := []rune(fmt.Sprintf("%s (%d chars total)", TruncationMarker, n))
	if limit <= len(marker) {
		return string(marker[:limit]), n
	}
	return string(runes[:limit-len(marker)]) + string(marker), n
}

// Summarize bounds a value summary to at most limit runes. Unlike Truncate it
// never reports the original length; summaries are meant to be glanceable.
func Summarize(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	marker := []rune(TruncationMarker)
	if limit <= len(marker) {
		return string(marker[:limit])
	}
	return string(runes[:limit-len(marker)]) + string(marker)
}
