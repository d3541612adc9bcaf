package query

import (
	"fmt"

	"github.com/gaborage/fluentsql/database/grammar"
)

// Where adds a condition joined to the previous ones with AND.
//
//	Where("id", 1)                  // "id" = 1
//	Where("calories", ">", 100)     // "calories" > 100
//	Where("name", "like", "A%", true) // NOT "name" LIKE 'A%'
//
// The operator may be a string or a grammar.Operator. With = or != the value
// nil, grammar.Null or the exact string "NULL" renders IS NULL / IS NOT NULL.
func (b *Builder) Where(column string, args ...any) *Builder {
	cond, err := parseCompare(column, args)
	if err != nil {
		return b.fail(err)
	}
	b.desc.Conditions = append(b.desc.Conditions, cond)
	return b
}

// WhereNot adds a negated condition. It accepts (column, value) or (column, operator, value).
func (b *Builder) WhereNot(column string, args ...any) *Builder {
	if len(args) < 1 || len(args) > 2 {
		return b.fail(fmt.Errorf("%w: whereNot accepts 2 or 3 arguments, got %d", ErrInvalidArgumentCount, len(args)+1))
	}
	return b.Where(column, append(padOperator(args), true)...)
}

// WhereIn adds a membership test against a slice of values.
func (b *Builder) WhereIn(column string, values any) *Builder {
	return b.whereIn(column, values, false)
}

// WhereNotIn adds a negated membership test against a slice of values.
func (b *Builder) WhereNotIn(column string, values any) *Builder {
	return b.whereIn(column, values, true)
}

// WhereNull adds an IS NULL condition.
func (b *Builder) WhereNull(column string) *Builder {
	return b.Where(column, grammar.OpEq, grammar.Null)
}

// WhereNotNull adds an IS NOT NULL condition.
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.Where(column, grammar.OpNe, grammar.Null)
}

func (b *Builder) whereIn(column string, values any, negated bool) *Builder {
	vs, ok := toValues(values)
	if !ok {
		return b.fail(fmt.Errorf("%w: whereIn expects a slice, got %T", ErrInvalidArgumentType, values))
	}
	b.desc.Conditions = append(b.desc.Conditions, grammar.In{
		Column:  column,
		Values:  vs,
		Negated: negated,
	})
	return b
}

// padOperator turns (value) into (=, value) so a negation flag can follow.
func padOperator(args []any) []any {
	if len(args) == 1 {
		return []any{grammar.OpEq, args[0]}
	}
	return append([]any(nil), args...)
}

func parseCompare(column string, args []any) (grammar.Compare, error) {
	switch len(args) {
	case 1:
		return grammar.Compare{Column: column, Operator: grammar.OpEq, Value: args[0]}, nil
	case 2, 3:
		op, err := parseOperator(args[0])
		if err != nil {
			return grammar.Compare{}, err
		}
		cond := grammar.Compare{Column: column, Operator: op, Value: args[1]}
		if len(args) == 3 {
			negated, ok := args[2].(bool)
			if !ok {
				return grammar.Compare{}, fmt.Errorf("%w: negation flag must be a bool, got %T", ErrInvalidArgumentType, args[2])
			}
			cond.Negated = negated
		}
		return cond, nil
	default:
		return grammar.Compare{}, fmt.Errorf("%w: where accepts 2 to 4 arguments, got %d", ErrInvalidArgumentCount, len(args)+1)
	}
}

func parseOperator(arg any) (grammar.Operator, error) {
	var raw string
	switch v := arg.(type) {
	case string:
		raw = v
	case grammar.Operator:
		raw = string(v)
	default:
		return "", fmt.Errorf("%w: %v (%T)", ErrUnsupportedOperator, arg, arg)
	}

	op, ok := grammar.ParseOperator(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, raw)
	}
	return op, nil
}
