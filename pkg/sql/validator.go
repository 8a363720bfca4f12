// Package sql validates the SQL fragments the pipeline is willing to accept:
// custom aggregation expressions supplied with a KPI spec, and filter values
// bound into rendered queries. The backing store is read-only, so anything
// that could smuggle in a second statement or a mutation is rejected here,
// before planning.
package sql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyExpression indicates the expression was empty after normalization.
	ErrEmptyExpression = errors.New("expression is empty")
	// ErrMultipleStatements indicates the expression contains a statement separator.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed")
	// ErrCommentSyntax indicates the expression contains SQL comment markers.
	ErrCommentSyntax = errors.New("SQL comments not allowed")
)

// mutationKeywords are statement verbs that must never appear in an
// aggregation expression. Matched as whole words outside string literals.
var mutationKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create",
	"truncate", "grant", "revoke", "attach", "detach", "pragma",
	"merge", "replace", "exec", "execute",
}

// ValidateExpression normalizes a custom aggregation expression and rejects
// anything beyond a single read-only expression.
//
// The validation order is:
//  1. Trim whitespace and a trailing semicolon (normalize)
//  2. Reject remaining semicolons outside string literals (second statement)
//  3. Reject comment markers outside string literals
//  4. Reject mutation keywords outside string literals
func ValidateExpression(expr string) (string, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(expr))
	if normalized == "" {
		return "", ErrEmptyExpression
	}

	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	if hasCommentOutsideStrings(normalized) {
		return "", ErrCommentSyntax
	}
	if kw := firstMutationKeyword(normalized); kw != "" {
		return "", fmt.Errorf("keyword %q not allowed in an aggregation expression", kw)
	}

	return normalized, nil
}

// hasSemicolonOutsideStrings scans for a semicolon outside string literals.
func hasSemicolonOutsideStrings(expr string) bool {
	found := false
	scanOutsideStrings(expr, func(ch rune, _ int) bool {
		if ch == ';' {
			found = true
			return false
		}
		return true
	})
	return found
}

// hasCommentOutsideStrings scans for -- or /* outside string literals.
func hasCommentOutsideStrings(expr string) bool {
	found := false
	var prev rune
	scanOutsideStrings(expr, func(ch rune, _ int) bool {
		if (prev == '-' && ch == '-') || (prev == '/' && ch == '*') {
			found = true
			return false
		}
		prev = ch
		return true
	})
	return found
}

// firstMutationKeyword returns the first forbidden statement verb present as
// a whole word outside string literals, or "" when the expression is clean.
func firstMutationKeyword(expr string) string {
	var sb strings.Builder
	scanOutsideStrings(expr, func(ch rune, _ int) bool {
		sb.WriteRune(ch)
		return true
	})
	outside := strings.ToLower(sb.String())

	for _, token := range splitWords(outside) {
		for _, kw := range mutationKeywords {
			if token == kw {
				return kw
			}
		}
	}
	return ""
}

// scanOutsideStrings walks expr rune by rune, invoking visit only for runes
// outside single- and double-quoted literals. Doubled quotes ('') and
// backslash escapes keep the scanner inside the literal. visit returning
// false stops the scan.
func scanOutsideStrings(expr string, visit func(ch rune, pos int) bool) {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)

	for pos, ch := range expr {
		switch state {
		case stateNormal:
			switch ch {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			default:
				if !visit(ch, pos) {
					return
				}
			}
		case stateSingleQuote:
			if ch == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = ch
	}
}

// splitWords splits on anything that cannot be part of an identifier.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isIdentRune(r)
	})
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// stripTrailingSemicolon removes one trailing semicolon and the whitespace
// around it.
func stripTrailingSemicolon(expr string) string {
	expr = strings.TrimRight(expr, " \t\n\r")
	if strings.HasSuffix(expr, ";") {
		expr = strings.TrimRight(strings.TrimSuffix(expr, ";"), " \t\n\r")
	}
	return expr
}
