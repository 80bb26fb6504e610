// Package guard provides input sanitization and the read-only SQL gate for
// the chat pipeline. Sanitize is a best-effort upstream filter on raw user
// text; Validate is the authoritative check every candidate query must pass
// before it reaches a live connection.
package guard

import (
	"regexp"
)

// injectionPatterns are removed from user input in order, case-insensitively,
// in a single pass each (output is not re-scanned). This is defense in depth
// ahead of the prompt and the validator, not a guarantee on its own.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*DROP`),
	regexp.MustCompile(`(?i);\s*DELETE`),
	regexp.MustCompile(`(?i);\s*UPDATE`),
	regexp.MustCompile(`(?i);\s*INSERT`),
	regexp.MustCompile(`(?i)UNION\s+SELECT`),
	regexp.MustCompile(`(?m)--\s*$`),
	regexp.MustCompile(`(?s)/\*.*?\*/`),
}

// Sanitize strips known SQL injection fragments from raw user text. The
// input is never mutated; a new string is returned.
func Sanitize(text string) string {
	cleaned := text
	for _, p := range injectionPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return cleaned
}
