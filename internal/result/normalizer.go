package result

import (
	"regexp"
	"strings"
)

// BinaryPlaceholder replaces binary cell content in normalized output. Angle
// brackets keep it outside every cleanup pattern so re-normalizing already
// clean text leaves it intact.
const BinaryPlaceholder = "<binary data>"

// NullToken is the display form of SQL NULL.
const NullToken = "NULL"

var (
	decimalWrapperRe = regexp.MustCompile(`Decimal\(['"]([^'"]+)['"]\)`)
	tupleGroupRe     = regexp.MustCompile(`\(([^)]+)\)`)
	quotedValueRe    = regexp.MustCompile(`'([^']*)'`)
	upperWordRe      = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	containerRe      = regexp.MustCompile(`[\[\]()]`)
	hexEscapeRe      = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	commaFieldRe     = regexp.MustCompile(`,\s*`)

	// binaryMarkers are payload fragments that indicate escaped byte content
	// in an unparsed textual result.
	binaryMarkers = []string{`b'\x`, `b"\x`, `b\x`, `\x89PNG`}
)

// Normalized is the display-safe form of a query result: rows of plain
// string cells with binary content redacted and NULLs made explicit.
type Normalized struct {
	Rows [][]string
}

// Normalize converts a Raw payload into its display-safe form. Structured
// rows normalize cell by cell; opaque scalars go through best-effort textual
// cleanup. Either way the output carries no raw binary bytes, no numeric
// wrapper syntax, and no container punctuation.
func Normalize(raw Raw) *Normalized {
	if raw.structured {
		rows := make([][]string, 0, len(raw.rows))
		for _, src := range raw.rows {
			row := make([]string, 0, len(src))
			for _, c := range src {
				row = append(row, normalizeCell(c))
			}
			rows = append(rows, row)
		}
		return &Normalized{Rows: rows}
	}
	return &Normalized{Rows: splitRows(CleanText(raw.text))}
}

// Text renders the normalized rows in the pipe-delimited intermediate form
// handed to the answer compiler.
func (n *Normalized) Text() string {
	lines := make([]string, 0, len(n.Rows))
	for _, row := range n.Rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

// Empty reports whether normalization produced no usable rows.
func (n *Normalized) Empty() bool {
	return len(n.Rows) == 0 || (len(n.Rows) == 1 && len(n.Rows[0]) == 1 && strings.TrimSpace(n.Rows[0][0]) == "")
}

func normalizeCell(c Cell) string {
	switch c.kind {
	case cellNull:
		return NullToken
	case cellBinary:
		return BinaryPlaceholder
	case cellNumber:
		return c.text
	default:
		cleaned := strings.TrimSpace(c.text)
		if shouldTitleCase(cleaned) {
			return titleCase(cleaned)
		}
		return cleaned
	}
}

// shouldTitleCase applies only to fully uppercase values that are not emails,
// URLs, or the NULL token, so identifiers like "ABC@CORP.COM" survive intact.
func shouldTitleCase(s string) bool {
	if s == NullToken || strings.ContainsRune(s, '@') || strings.Contains(strings.ToLower(s), "http") {
		return false
	}
	hasUpper := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
	}
	return hasUpper
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(r) // word start keeps its (upper) case
		case isLetter:
			b.WriteRune(r | 0x20) // lowercase the rest of the word
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// CleanText is the fallback cleanup for payloads that resisted structured
// parsing. It redacts escaped binary content, strips numeric wrappers and
// container punctuation, splits multiple parenthesized groups into rows, and
// title-cases stranded ALL-CAPS words. Already-clean text passes through
// unchanged, so the function is idempotent.
func CleanText(payload string) string {
	text := payload

	// Escaped byte content: keep everything before the first marker, drop
	// the rest, note the redaction.
	if idx := firstBinaryMarker(text); idx >= 0 {
		head := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text[:idx]), ",([`'\""))
		if head == "" {
			return BinaryPlaceholder
		}
		text = head + " | " + BinaryPlaceholder
	}

	text = decimalWrapperRe.ReplaceAllString(text, "$1")

	groups := tupleGroupRe.FindAllStringSubmatch(text, -1)
	if len(groups) >= 2 {
		rows := make([]string, 0, len(groups))
		for _, g := range groups {
			row := quotedValueRe.ReplaceAllString(g[1], "$1")
			row = commaFieldRe.ReplaceAllString(row, " | ")
			// Single-element tuples repr with a trailing comma.
			row = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(row), "|"))
			rows = append(rows, titleCaseFields(row))
		}
		text = strings.Join(rows, "\n")
	} else {
		text = strings.ReplaceAll(text, "[(", "")
		text = strings.ReplaceAll(text, ")]", "")
		text = containerRe.ReplaceAllString(text, "")
		text = quotedValueRe.ReplaceAllString(text, "$1")
		// Comma-to-pipe conversion only applies to payloads that are not
		// already pipe-delimited; re-cleaning clean output must not split
		// values on embedded commas.
		if !strings.Contains(text, "|") {
			text = commaFieldRe.ReplaceAllString(text, " | ")
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = titleCaseFields(line)
		}
		text = strings.Join(lines, "\n")
	}

	return hexEscapeRe.ReplaceAllString(text, "")
}

// titleCaseFields applies the ALL-CAPS title-casing rule per pipe-delimited
// field, leaving any field that carries an email or URL untouched.
func titleCaseFields(line string) string {
	fields := strings.Split(line, "|")
	for i, f := range fields {
		if strings.ContainsRune(f, '@') || strings.Contains(strings.ToLower(f), "http") {
			continue
		}
		fields[i] = upperWordRe.ReplaceAllStringFunc(f, func(w string) string {
			if w == NullToken {
				return w
			}
			return titleCase(w)
		})
	}
	return strings.Join(fields, "|")
}

func firstBinaryMarker(s string) int {
	first := -1
	for _, m := range binaryMarkers {
		if idx := strings.Index(s, m); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	return first
}

func splitRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, " | ")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, fields)
	}
	return rows
}

// HasArtifacts reports whether text still carries raw container notation or
// numeric wrapper syntax and would benefit from a CleanText pass. The
// controller uses this to decide whether fallback-agent output needs
// re-normalization.
func HasArtifacts(text string) bool {
	return strings.Contains(text, "[(") ||
		strings.Contains(text, "Decimal(") ||
		firstBinaryMarker(text) >= 0
}
