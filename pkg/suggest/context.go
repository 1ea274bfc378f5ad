package suggest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ContextClass is the kind of SQL position the cursor sits in.
type ContextClass uint8

const (
	Generic ContextClass = iota
	AfterFromJoin
	AfterDotOnTable
	AfterSelectWhereClause
)

func (c ContextClass) String() string {
	switch c {
	case AfterFromJoin:
		return "after_from_join"
	case AfterDotOnTable:
		return "after_dot"
	case AfterSelectWhereClause:
		return "after_clause"
	default:
		return "generic"
	}
}

// CursorContext is recomputed on every request.
// TableToken is only set for AfterDotOnTable.
type CursorContext struct {
	Class      ContextClass
	TableToken string
}

var (
	dotPattern      = regexp.MustCompile(`([A-Za-z0-9_]+)\.$`)
	fromJoinPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+[A-Za-z0-9_]*$`)
	clausePattern   = regexp.MustCompile(`(?i)\b(?:SELECT|WHERE|AND|OR|ON|HAVING|GROUP\s+BY|ORDER\s+BY)\s+[A-Za-z0-9_]*$`)
	wordPattern     = regexp.MustCompile(`[A-Za-z0-9_]*$`)
)

// Classify looks only at the text before the cursor on the current line.
// The order of the checks matters: a trailing dot means columns even
// inside a SELECT or WHERE clause.
func Classify(lineBefore string) CursorContext {
	if m := dotPattern.FindStringSubmatch(lineBefore); m != nil {
		return CursorContext{Class: AfterDotOnTable, TableToken: m[1]}
	}
	if fromJoinPattern.MatchString(lineBefore) {
		return CursorContext{Class: AfterFromJoin}
	}
	if clausePattern.MatchString(lineBefore) {
		return CursorContext{Class: AfterSelectWhereClause}
	}
	return CursorContext{Class: Generic}
}

// LineBeforeCursor returns the text left of a 1-based (line, column)
// position. Columns count runes. Positions past the end are clamped and
// lines outside the buffer read as empty.
func LineBeforeCursor(buffer string, line, column int) string {
	if line < 1 {
		return ""
	}

	rest := buffer
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return ""
		}
		rest = rest[nl+1:]
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	rest = strings.TrimSuffix(rest, "\r")

	if column <= 1 {
		return ""
	}
	if n := column - 1; n < utf8.RuneCountInString(rest) {
		runes := []rune(rest)
		return string(runes[:n])
	}
	return rest
}

// WordBeforeCursor returns the identifier fragment the user is typing.
func WordBeforeCursor(lineBefore string) string {
	return wordPattern.FindString(lineBefore)
}
