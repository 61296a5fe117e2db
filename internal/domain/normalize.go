package domain

import "strings"

// NormalizeText prepares message text for keyword matching: lowercase,
// trimmed, with every run of whitespace (including newlines) folded into a
// single space. Diacritics and punctuation are preserved.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
