package utils

import "unicode/utf8"

// ShortenString cuts s to l runes and marks the cut with "...". l == 0
// disables shortening.
func ShortenString(s string, l int) string {
	if l <= 0 || utf8.RuneCountInString(s) <= l {
		return s
	}
	return string([]rune(s)[:l]) + "..."
}
