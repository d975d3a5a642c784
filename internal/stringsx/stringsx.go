package stringsx

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Clip returns at most max runes of s.
// If max <= 0, an empty string is returned.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// Normalize trims surrounding space and converts s to Unicode NFC, so the same
// visible text is always stored with the same bytes.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// IsEmpty reports whether s is empty after trimming spaces.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NonBlankLines returns up to max lines of s that contain something other than space.
func NonBlankLines(s string, max int) []string {
	if max <= 0 {
		return nil
	}
	var out []string
	for line := range strings.Lines(s) {
		line = strings.TrimRight(line, "\r\n")
		if IsEmpty(line) {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

// RuneLen is the length of s as the user sees it.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
