package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// ErrBindingUnsupported is returned when a grammar does not know its placeholder format.
var ErrBindingUnsupported = errors.New("grammar does not support bound parameters")

// The Bind* functions compile the same descriptor as the Render* methods but emit
// vendor placeholders and an argument slice instead of inline literals.
// String values compared in a joined statement are column references, so they stay
// inline exactly as the Render* methods print them.

// BindSelect compiles a SELECT statement with bound parameters.
func BindSelect(g Grammar, d *Descriptor) (query string, args []any, err error) {
	dl, err := binderFor(g)
	if err != nil {
		return "", nil, err
	}

	quote := identifierQuoter(dl)
	columns := []string{"*"}
	if len(d.Columns) > 0 {
		columns = make([]string, len(d.Columns))
		for i, c := range d.Columns {
			columns[i] = quote(c)
		}
	}

	sb := squirrel.StatementBuilder.PlaceholderFormat(dl.placeholder()).
		Select(columns...).
		From(quote(d.Table))
	if d.Distinct {
		sb = sb.Distinct()
	}
	for _, j := range d.Joins {
		sb = sb.JoinClause(joinClause(j, quote))
	}
	for _, c := range d.Conditions {
		sb = sb.Where(bindCondition(dl, d, c))
	}
	if d.Order != nil {
		sb = sb.OrderBy(quote(d.Order.Column) + " " + string(d.Order.Direction))
	}
	if page := dl.pagination(d.Limit, d.Offset); page != "" {
		sb = sb.Suffix(page)
	}

	return sb.ToSql()
}

// BindInsert compiles an INSERT statement from the create payload.
func BindInsert(g Grammar, d *Descriptor) (query string, args []any, err error) {
	dl, err := binderFor(g)
	if err != nil {
		return "", nil, err
	}

	quote := identifierQuoter(dl)
	keys := sortedKeys(d.CreatePayload)
	cols := make([]string, len(keys))
	vals := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quote(k)
		vals[i] = bindValue(dl, d.CreatePayload[k])
	}

	return squirrel.StatementBuilder.PlaceholderFormat(dl.placeholder()).
		Insert(quote(d.Table)).
		Columns(cols...).
		Values(vals...).
		ToSql()
}

// BindUpdate compiles an UPDATE statement scoped by the descriptor's conditions.
func BindUpdate(g Grammar, d *Descriptor, payload map[string]any) (query string, args []any, err error) {
	dl, err := binderFor(g)
	if err != nil {
		return "", nil, err
	}

	quote := identifierQuoter(dl)
	ub := squirrel.StatementBuilder.PlaceholderFormat(dl.placeholder()).
		Update(quote(d.Table))
	for _, k := range sortedKeys(payload) {
		ub = ub.Set(quote(k), bindValue(dl, payload[k]))
	}
	for _, c := range d.Conditions {
		ub = ub.Where(bindCondition(dl, d, c))
	}

	return ub.ToSql()
}

// BindDelete compiles a DELETE statement scoped by the descriptor's conditions.
func BindDelete(g Grammar, d *Descriptor) (query string, args []any, err error) {
	dl, err := binderFor(g)
	if err != nil {
		return "", nil, err
	}

	db := squirrel.StatementBuilder.PlaceholderFormat(dl.placeholder()).
		Delete(identifierQuoter(dl)(d.Table))
	for _, c := range d.Conditions {
		db = db.Where(bindCondition(dl, d, c))
	}

	return db.ToSql()
}

func binderFor(g Grammar) (dialect, error) {
	dl, ok := g.(dialect)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBindingUnsupported, g)
	}
	return dl, nil
}

// identifierQuoter returns QuoteIdentifier for text placed verbatim in a
// squirrel statement. Dollar and colon formats rewrite every "?" they find,
// so literal ones are doubled; the question format leaves the text alone.
func identifierQuoter(dl dialect) func(string) string {
	if dl.placeholder() == squirrel.Question {
		return QuoteIdentifier
	}
	return func(identifier string) string {
		return strings.ReplaceAll(QuoteIdentifier(identifier), "?", "??")
	}
}

func bindCondition(dl dialect, d *Descriptor, c Condition) squirrel.Sqlizer {
	quote := identifierQuoter(dl)
	switch cond := c.(type) {
	case Compare:
		prefix := ""
		if cond.Negated {
			prefix = "NOT "
		}
		column := quote(cond.Column)
		if nullCheck, ok := nullComparison(cond); ok {
			return squirrel.Expr(prefix + column + " " + nullCheck)
		}
		if s, ok := cond.Value.(string); ok && d.HasJoins() {
			return squirrel.Expr(prefix + column + " " + cond.Operator.keyword() + " " + quote(s))
		}
		return squirrel.Expr(prefix+column+" "+cond.Operator.keyword()+" ?", bindValue(dl, cond.Value))
	case In:
		if len(cond.Values) == 0 {
			return squirrel.Expr(emptyInCondition(cond.Negated))
		}
		args := make([]any, len(cond.Values))
		for i, v := range cond.Values {
			args[i] = bindValue(dl, v)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		return squirrel.Expr(quote(cond.Column)+" "+inKeyword(cond.Negated)+" ("+marks+")", args...)
	default:
		panic(fmt.Sprintf("grammar: unsupported condition %T", c))
	}
}

func bindValue(dl dialect, v any) any {
	switch val := v.(type) {
	case nullToken:
		return nil
	case bool:
		return dl.bindBool(val)
	default:
		return v
	}
}
