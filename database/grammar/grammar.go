// Package grammar renders a query Descriptor into dialect-specific SQL text.
// Every Grammar is stateless; rendering is a pure function of the descriptor.
package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/gaborage/fluentsql/database/types"
)

// ErrUnknownDialect is returned by ForVendor for vendors without a grammar.
var ErrUnknownDialect = errors.New("no grammar for database vendor")

// Grammar turns a Descriptor into SQL text for one dialect.
// New dialects are added as new types implementing this interface; the query
// builder never needs to change for them.
type Grammar interface {
	// Name returns the vendor identifier the grammar targets.
	Name() string

	RenderSelect(d *Descriptor) string
	RenderInsert(d *Descriptor) string
	RenderUpdate(d *Descriptor, payload map[string]any) string
	RenderDelete(d *Descriptor) string
}

// dialect is the per-vendor wording the shared renderer delegates to.
type dialect interface {
	boolLiteral(v bool) string
	bindBool(v bool) any
	pagination(limit, offset *int) string
	placeholder() squirrel.PlaceholderFormat
}

// Default returns the grammar used when the caller does not pick one.
func Default() Grammar {
	return Postgres{}
}

// ForVendor returns the grammar matching a connector's DatabaseType.
func ForVendor(vendor string) (Grammar, error) {
	switch vendor {
	case types.PostgreSQL:
		return Postgres{}, nil
	case types.Oracle:
		return Oracle{}, nil
	case types.SQLite, types.LibSQL:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, vendor)
	}
}

// QuoteIdentifier quotes every dot-separated segment of identifier.
// A bare * segment and segments that are already quoted are left untouched.
func QuoteIdentifier(identifier string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func selectColumns(d *Descriptor) []string {
	if len(d.Columns) == 0 {
		return []string{"*"}
	}
	cols := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = QuoteIdentifier(c)
	}
	return cols
}

func joinClause(j Join, quote func(string) string) string {
	clause := string(j.Type) + " JOIN " + quote(j.Table)
	if j.Type == CrossJoin && j.LeftColumn == "" {
		return clause
	}
	return clause + " ON " + quote(j.LeftColumn) + " " + j.Operator.keyword() + " " + quote(j.RightColumn)
}

func renderSelect(dl dialect, d *Descriptor) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if d.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(selectColumns(d), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdentifier(d.Table))

	for _, j := range d.Joins {
		sb.WriteString(" ")
		sb.WriteString(joinClause(j, QuoteIdentifier))
	}

	writeWhere(&sb, dl, d)

	if d.Order != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(QuoteIdentifier(d.Order.Column))
		sb.WriteString(" ")
		sb.WriteString(string(d.Order.Direction))
	}

	if page := dl.pagination(d.Limit, d.Offset); page != "" {
		sb.WriteString(" ")
		sb.WriteString(page)
	}

	return sb.String()
}

func renderInsert(dl dialect, d *Descriptor) string {
	keys := sortedKeys(d.CreatePayload)
	cols := make([]string, len(keys))
	vals := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = QuoteIdentifier(k)
		vals[i] = formatLiteral(dl, d.CreatePayload[k])
	}

	return "INSERT INTO " + QuoteIdentifier(d.Table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ")"
}

func renderUpdate(dl dialect, d *Descriptor, payload map[string]any) string {
	keys := sortedKeys(payload)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = QuoteIdentifier(k) + " = " + formatLiteral(dl, payload[k])
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(QuoteIdentifier(d.Table))
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	writeWhere(&sb, dl, d)
	return sb.String()
}

func renderDelete(dl dialect, d *Descriptor) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(QuoteIdentifier(d.Table))
	writeWhere(&sb, dl, d)
	return sb.String()
}

func writeWhere(sb *strings.Builder, dl dialect, d *Descriptor) {
	if len(d.Conditions) == 0 {
		return
	}
	parts := make([]string, len(d.Conditions))
	for i, c := range d.Conditions {
		parts[i] = renderCondition(dl, d, c)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(parts, " AND "))
}

func renderCondition(dl dialect, d *Descriptor, c Condition) string {
	switch cond := c.(type) {
	case Compare:
		prefix := ""
		if cond.Negated {
			prefix = "NOT "
		}
		column := QuoteIdentifier(cond.Column)
		if nullCheck, ok := nullComparison(cond); ok {
			return prefix + column + " " + nullCheck
		}
		return prefix + column + " " + cond.Operator.keyword() + " " + formatConditionValue(dl, d, cond.Value)
	case In:
		if len(cond.Values) == 0 {
			return emptyInCondition(cond.Negated)
		}
		vals := make([]string, len(cond.Values))
		for i, v := range cond.Values {
			vals[i] = formatLiteral(dl, v)
		}
		return QuoteIdentifier(cond.Column) + " " + inKeyword(cond.Negated) + " (" + strings.Join(vals, ", ") + ")"
	default:
		panic(fmt.Sprintf("grammar: unsupported condition %T", c))
	}
}

// nullComparison maps = NULL and != NULL onto IS NULL and IS NOT NULL.
func nullComparison(c Compare) (string, bool) {
	if !isNull(c.Value) && c.Value != nullKeyword {
		return "", false
	}
	switch c.Operator {
	case OpEq:
		return "IS NULL", true
	case OpNe:
		return "IS NOT NULL", true
	default:
		return "", false
	}
}

func emptyInCondition(negated bool) string {
	if negated {
		return "1 = 1"
	}
	return "1 = 0"
}

func inKeyword(negated bool) string {
	if negated {
		return "NOT IN"
	}
	return "IN"
}

// sortedKeys returns a deterministically ordered slice of keys from the provided map.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
