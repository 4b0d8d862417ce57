package common

import "strings"

// FoldKey joins the parts into a case-insensitive comparison key.
// Surrounding whitespace is ignored.
func FoldKey(parts ...string) string {
	folded := make([]string, len(parts))
	for i, p := range parts {
		folded[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(folded, "\x1f")
}

// HasMinRunes reports whether s holds at least n characters once trimmed.
func HasMinRunes(s string, n int) bool {
	return len([]rune(strings.TrimSpace(s))) >= n
}
