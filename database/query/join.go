package query

import (
	"fmt"

	"github.com/gaborage/fluentsql/database/grammar"
)

// Join appends a joined relation. The join type defaults to INNER.
// Columns may be qualified as table.column.
func (b *Builder) Join(table, leftColumn, operator, rightColumn string, joinType ...string) *Builder {
	kind := grammar.InnerJoin
	switch len(joinType) {
	case 0:
	case 1:
		parsed, ok := grammar.ParseJoinType(joinType[0])
		if !ok {
			return b.fail(fmt.Errorf("%w: %q", ErrUnsupportedJoinType, joinType[0]))
		}
		kind = parsed
	default:
		return b.fail(fmt.Errorf("%w: join accepts 4 or 5 arguments, got %d", ErrInvalidArgumentCount, len(joinType)+4))
	}
	return b.join(table, leftColumn, operator, rightColumn, kind)
}

// InnerJoin appends an INNER JOIN.
func (b *Builder) InnerJoin(table, leftColumn, operator, rightColumn string) *Builder {
	return b.join(table, leftColumn, operator, rightColumn, grammar.InnerJoin)
}

// LeftJoin appends a LEFT JOIN.
func (b *Builder) LeftJoin(table, leftColumn, operator, rightColumn string) *Builder {
	return b.join(table, leftColumn, operator, rightColumn, grammar.LeftJoin)
}

// RightJoin appends a RIGHT JOIN.
func (b *Builder) RightJoin(table, leftColumn, operator, rightColumn string) *Builder {
	return b.join(table, leftColumn, operator, rightColumn, grammar.RightJoin)
}

// FullJoin appends a FULL JOIN.
func (b *Builder) FullJoin(table, leftColumn, operator, rightColumn string) *Builder {
	return b.join(table, leftColumn, operator, rightColumn, grammar.FullJoin)
}

// CrossJoin appends a CROSS JOIN. An empty leftColumn renders without ON.
func (b *Builder) CrossJoin(table, leftColumn, operator, rightColumn string) *Builder {
	return b.join(table, leftColumn, operator, rightColumn, grammar.CrossJoin)
}

func (b *Builder) join(table, leftColumn, operator, rightColumn string, kind grammar.JoinType) *Builder {
	j := grammar.Join{Table: table, Type: kind}
	if !(kind == grammar.CrossJoin && leftColumn == "") {
		op, ok := grammar.ParseOperator(operator)
		if !ok || !grammar.IsJoinOperator(op) {
			return b.fail(fmt.Errorf("%w: %q cannot compare join columns", ErrUnsupportedOperator, operator))
		}
		j.LeftColumn = leftColumn
		j.Operator = op
		j.RightColumn = rightColumn
	}
	b.desc.Joins = append(b.desc.Joins, j)
	return b
}
