// Package result converts raw query output into redacted, display-safe text.
// Input arrives either as driver-typed rows from a live connection or as an
// opaque textual payload (fallback agent output, upstream tool output). Both
// forms reduce to the same tagged representation before normalization.
package result

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tabletalk/tabletalk/internal/model"
)

type cellKind int

const (
	cellText cellKind = iota
	cellNumber
	cellNull
	cellBinary
)

// Cell is a single tagged value within a parsed row.
type Cell struct {
	kind cellKind
	text string
}

// Raw is the tagged union over query output: either a parsed sequence of
// rows, or an opaque scalar payload that resisted structured parsing.
type Raw struct {
	rows       [][]Cell
	text       string
	structured bool
}

// Structured reports whether the payload parsed into rows.
func (r Raw) Structured() bool { return r.structured }

// FromRows converts executor output into structured Raw form. Driver values
// are tagged by type; byte slices that do not hold printable UTF-8 are
// treated as binary payloads.
func FromRows(rr *model.RawRows) Raw {
	if rr == nil {
		return Raw{}
	}
	rows := make([][]Cell, 0, len(rr.Rows))
	for _, src := range rr.Rows {
		row := make([]Cell, 0, len(src))
		for _, v := range src {
			row = append(row, cellFromValue(v))
		}
		rows = append(rows, row)
	}
	return Raw{rows: rows, structured: true}
}

// Parse attempts to read a textual payload as a literal sequence of rows,
// in the bracketed tuple notation upstream tools emit:
//
//	[('HORROR',), ('ACTION', 42, None)]
//
// When the payload is not in that shape, the whole text is carried as an
// opaque scalar and left to the fallback cleanup path.
func Parse(payload string) Raw {
	if rows, ok := parseLiteral(payload); ok {
		return Raw{rows: rows, structured: true}
	}
	return Raw{text: payload}
}

func cellFromValue(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{kind: cellNull}
	case []byte:
		if s, ok := printable(x); ok {
			return Cell{kind: cellText, text: s}
		}
		return Cell{kind: cellBinary}
	case string:
		return Cell{kind: cellText, text: x}
	case int64:
		return Cell{kind: cellNumber, text: strconv.FormatInt(x, 10)}
	case int:
		return Cell{kind: cellNumber, text: strconv.Itoa(x)}
	case float64:
		return Cell{kind: cellNumber, text: strconv.FormatFloat(x, 'f', -1, 64)}
	case bool:
		return Cell{kind: cellText, text: strconv.FormatBool(x)}
	case time.Time:
		return Cell{kind: cellText, text: x.Format("2006-01-02 15:04:05")}
	default:
		return Cell{kind: cellText, text: strings.TrimSpace(fmt.Sprintf("%v", x))}
	}
}

// printable reports whether b decodes as UTF-8 without control bytes, and if
// so returns it as a string. MySQL and SQLite drivers hand back TEXT columns
// as []byte, so this distinguishes genuine text from BLOB content.
func printable(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	for _, r := range string(b) {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return "", false
		}
	}
	return string(b), true
}

// --- literal tuple-list parser ---

type literalParser struct {
	s   string
	pos int
}

func parseLiteral(payload string) ([][]Cell, bool) {
	s := strings.TrimSpace(payload)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	p := &literalParser{s: s[1 : len(s)-1]}

	var rows [][]Cell
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		row, ok := p.parseTuple()
		if !ok {
			return nil, false
		}
		rows = append(rows, row)
		p.skipSpace()
		if !p.eof() && !p.consume(',') {
			return nil, false
		}
	}
	if len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

func (p *literalParser) parseTuple() ([]Cell, bool) {
	if !p.consume('(') {
		return nil, false
	}
	row := []Cell{}
	for {
		p.skipSpace()
		if p.consume(')') {
			return row, true
		}
		cell, ok := p.parseCell()
		if !ok {
			return nil, false
		}
		row = append(row, cell)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			return row, true
		}
		return nil, false
	}
}

func (p *literalParser) parseCell() (Cell, bool) {
	p.skipSpace()
	if p.eof() {
		return Cell{}, false
	}

	switch c := p.s[p.pos]; {
	case c == '\'' || c == '"':
		text, ok := p.parseQuoted()
		if !ok {
			return Cell{}, false
		}
		if looksBinary(text) {
			return Cell{kind: cellBinary}, true
		}
		return Cell{kind: cellText, text: text}, true

	case c == 'b' && p.pos+1 < len(p.s) && (p.s[p.pos+1] == '\'' || p.s[p.pos+1] == '"'):
		p.pos++
		if _, ok := p.parseQuoted(); !ok {
			return Cell{}, false
		}
		return Cell{kind: cellBinary}, true

	case p.hasWord("None") || p.hasWord("NULL"):
		return Cell{kind: cellNull}, true

	case p.hasWord("True"):
		return Cell{kind: cellText, text: "True"}, true

	case p.hasWord("False"):
		return Cell{kind: cellText, text: "False"}, true

	case strings.HasPrefix(p.s[p.pos:], "Decimal("):
		p.pos += len("Decimal(")
		inner, ok := p.parseQuoted()
		if !ok || !p.consume(')') {
			return Cell{}, false
		}
		return Cell{kind: cellNumber, text: inner}, true

	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.parseNumber()

	default:
		return Cell{}, false
	}
}

func (p *literalParser) parseQuoted() (string, bool) {
	quote := p.s[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), true
		case c == '\\' && p.pos+1 < len(p.s):
			next := p.s[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(next)
			default:
				// Unknown escapes (notably \xNN) stay literal so binary
				// detection downstream can see them.
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", false
}

func (p *literalParser) parseNumber() (Cell, bool) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	tok := p.s[start:p.pos]
	if _, err := strconv.ParseFloat(tok, 64); err != nil {
		return Cell{}, false
	}
	return Cell{kind: cellNumber, text: tok}, true
}

func (p *literalParser) hasWord(word string) bool {
	if strings.HasPrefix(p.s[p.pos:], word) {
		end := p.pos + len(word)
		if end == len(p.s) || !isWordByte(p.s[end]) {
			p.pos = end
			return true
		}
	}
	return false
}

func (p *literalParser) consume(c byte) bool {
	p.skipSpace()
	if !p.eof() && p.s[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\n' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) eof() bool { return p.pos >= len(p.s) }

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// looksBinary detects string values that are really escaped byte payloads.
func looksBinary(s string) bool {
	if strings.HasPrefix(s, `b\x`) {
		return true
	}
	head := s
	if len(head) > 20 {
		head = head[:20]
	}
	return strings.Contains(head, `\x`)
}
