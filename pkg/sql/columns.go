package sql

import "strings"

// expressionKeywords are tokens that may appear in an aggregation expression
// without referring to a column.
var expressionKeywords = map[string]struct{}{
	"case": {}, "when": {}, "then": {}, "else": {}, "end": {},
	"as": {}, "distinct": {}, "and": {}, "or": {}, "not": {},
	"null": {}, "is": {}, "like": {}, "in": {}, "between": {},
	"cast": {}, "over": {}, "partition": {}, "by": {}, "filter": {},
	"asc": {}, "desc": {}, "true": {}, "false": {},
	"integer": {}, "bigint": {}, "real": {}, "float": {}, "numeric": {},
	"decimal": {}, "text": {}, "varchar": {}, "date": {}, "timestamp": {},
}

// ExtractColumnRefs returns the column identifiers referenced by an
// aggregation expression, deduplicated in first-appearance order. Function
// names (identifiers directly followed by an opening parenthesis), SQL
// keywords, numeric literals and string literal contents are not columns.
// Table-qualified references keep only the column part.
//
// The extraction is lexical, not a full SQL parse; expressions must already
// have passed ValidateExpression.
func ExtractColumnRefs(expr string) []string {
	flat := blankStringLiterals(expr)

	seen := make(map[string]struct{})
	var columns []string

	i := 0
	for i < len(flat) {
		if !isIdentByte(flat[i]) {
			i++
			continue
		}
		start := i
		for i < len(flat) && isIdentByte(flat[i]) {
			i++
		}
		tok := flat[start:i]
		next := nextNonSpace(flat, i)

		lower := strings.ToLower(tok)
		if _, keyword := expressionKeywords[lower]; keyword {
			continue
		}
		if tok[0] >= '0' && tok[0] <= '9' {
			continue // numeric literal
		}
		if next == '(' {
			continue // function name
		}
		if next == '.' {
			continue // table qualifier; the column token follows
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		columns = append(columns, tok)
	}
	return columns
}

// blankStringLiterals replaces every rune inside a string literal (and the
// quotes themselves) with a space, preserving byte positions for the lexer.
func blankStringLiterals(expr string) string {
	out := []byte(expr)
	for i := range out {
		out[i] = ' '
	}
	scanOutsideStrings(expr, func(ch rune, pos int) bool {
		if ch < 128 {
			out[pos] = byte(ch)
		}
		return true
	})
	return string(out)
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' {
			return s[i]
		}
	}
	return 0
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
