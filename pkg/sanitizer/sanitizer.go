// Package sanitizer normalizes free-text input before validation and
// storage. All functions are idempotent and handle invalid input by
// returning an empty string rather than an error.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims leading/trailing whitespace and collapses
// internal runs of whitespace to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeNotes normalizes booking notes, stripping control characters
// that break log lines and downstream SMS templates.
func NormalizeNotes(notes string) string {
	var cleaned strings.Builder
	for _, r := range notes {
		if unicode.IsControl(r) && r != '\n' {
			continue
		}
		cleaned.WriteRune(r)
	}
	return TrimAndNormalize(cleaned.String())
}

// NormalizeLabel lowercases and trims a service or package label.
func NormalizeLabel(label string) string {
	return strings.ToLower(TrimAndNormalize(label))
}
