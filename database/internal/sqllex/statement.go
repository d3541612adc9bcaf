// Package sqllex classifies SQL statement text just far enough for the
// execution layer: which keyword leads it, whether it yields rows, and which
// table it targets.
package sqllex

import (
	"regexp"
	"strings"
	"unicode"
)

// UnknownTable is reported when no target table can be found.
const UnknownTable = "unknown"

var rowKeywords = map[string]struct{}{
	"SELECT": {}, "WITH": {}, "VALUES": {}, "SHOW": {},
	"EXPLAIN": {}, "PRAGMA": {}, "DESCRIBE": {}, "TABLE": {},
}

var (
	returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

	// optional schema qualifier, then the table name with or without quotes
	tablePattern = "(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?"

	selectTableRegex = regexp.MustCompile(`(?i)\bFROM\s+` + tablePattern)
	insertTableRegex = regexp.MustCompile(`(?i)^INSERT\s+INTO\s+` + tablePattern)
	updateTableRegex = regexp.MustCompile(`(?i)^UPDATE\s+` + tablePattern)
	deleteTableRegex = regexp.MustCompile(`(?i)^DELETE\s+FROM\s+` + tablePattern)
)

// Keyword returns the upper-cased first keyword of query, skipping leading
// whitespace, comments and opening parentheses. It returns "" for empty text.
func Keyword(query string) string {
	rest := skipPrefix(query)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end == -1 {
		end = len(rest)
	}
	return strings.ToUpper(rest[:end])
}

// ReturnsRows reports whether query produces a result set: read statements
// and data-modifying statements with a RETURNING clause.
func ReturnsRows(query string) bool {
	if _, ok := rowKeywords[Keyword(query)]; ok {
		return true
	}
	return returningClause.MatchString(query)
}

// Operation returns the lower-cased statement verb for well-known DML and
// DDL statements, or "query" for everything else.
func Operation(query string) string {
	switch kw := Keyword(query); kw {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "TRUNCATE", "WITH":
		return strings.ToLower(kw)
	default:
		return "query"
	}
}

// TableName returns the lower-cased primary table of a SELECT, INSERT,
// UPDATE or DELETE statement. For joins it is the first table after FROM.
func TableName(query string) string {
	text := skipPrefix(query)

	var pattern *regexp.Regexp
	switch Keyword(text) {
	case "SELECT", "WITH":
		pattern = selectTableRegex
	case "INSERT":
		pattern = insertTableRegex
	case "UPDATE":
		pattern = updateTableRegex
	case "DELETE":
		pattern = deleteTableRegex
	default:
		return UnknownTable
	}

	if matches := pattern.FindStringSubmatch(text); len(matches) > 1 {
		return strings.ToLower(matches[1])
	}
	return UnknownTable
}

func skipPrefix(query string) string {
	rest := query
	for {
		rest = strings.TrimLeftFunc(rest, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(rest, "--"):
			nl := strings.IndexByte(rest, '\n')
			if nl == -1 {
				return ""
			}
			rest = rest[nl+1:]
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest, "*/")
			if end == -1 {
				return ""
			}
			rest = rest[end+2:]
		default:
			return rest
		}
	}
}
