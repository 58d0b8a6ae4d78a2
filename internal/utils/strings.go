package utils

import "fmt"

// DefaultMaxStringLength is the truncation length used when none is given.
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen runes and records the original
// length in a suffix. A non-positive maxLen uses DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", string(runes[:maxLen]), len(runes))
}
