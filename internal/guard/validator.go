package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tabletalk/tabletalk/internal/model"
)

// forbiddenKeywords are statement types that modify data or schema. Matching
// is whole-word so identifiers that merely contain a keyword (deleted_at,
// update_count) do not trip the gate.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
	"TRUNCATE", "REPLACE", "MERGE", "GRANT", "REVOKE",
	"EXEC", "EXECUTE", "CALL", "LOAD", "RENAME",
}

var forbiddenPatterns = compileKeywordPatterns(forbiddenKeywords)

// rescanKeywords is the shorter scan applied to fallback-agent output, which
// is free-form prose rather than a single statement.
var rescanPatterns = compileKeywordPatterns([]string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
})

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

func compileKeywordPatterns(keywords []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		patterns[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return patterns
}

// Validate decides whether a candidate query is structurally read-only. It is
// a deterministic, total function with no I/O: comments are stripped, the
// remaining text is scanned for a denylist of mutating keywords, and the
// statement must begin with SELECT. This is deliberately a pattern gate, not
// a SQL parser; it prefers rejecting unusual-but-valid SQL over ever
// accepting a disguised mutation.
func Validate(queryText string) model.ValidationResult {
	if strings.TrimSpace(queryText) == "" {
		return model.ValidationResult{Accepted: false, Reason: "empty query"}
	}

	upper := strings.ToUpper(queryText)

	// Comments are stripped before both checks so a commented-out leading
	// statement cannot smuggle a non-SELECT past the prefix check, and so
	// a mutating keyword that exists only inside a comment stays inert.
	stripped := blockCommentRe.ReplaceAllString(lineCommentRe.ReplaceAllString(upper, ""), "")

	for _, kw := range forbiddenKeywords {
		if forbiddenPatterns[kw].MatchString(stripped) {
			return model.ValidationResult{
				Accepted: false,
				Reason:   fmt.Sprintf("%s operations are not allowed: this assistant is read-only", kw),
			}
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(stripped), "SELECT") {
		return model.ValidationResult{
			Accepted: false,
			Reason:   "only SELECT queries are allowed",
		}
	}

	return model.ValidationResult{Accepted: true}
}

// ContainsMutatingKeyword reports whether free-form text (such as fallback
// agent output) mentions a data-modification statement as a whole word.
func ContainsMutatingKeyword(text string) bool {
	upper := strings.ToUpper(text)
	for _, p := range rescanPatterns {
		if p.MatchString(upper) {
			return true
		}
	}
	return false
}
