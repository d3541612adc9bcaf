// Package query provides the fluent Builder that accumulates a statement
// description and hands it to a grammar for rendering.
//
// Fluent methods never return errors. A structural mistake (wrong argument
// count, unknown operator, bad order direction) is recorded on the builder
// at the call that made it, the offending call is dropped, and every
// terminal method reports the first recorded error before anything is
// rendered or executed:
//
//	sql, err := query.New().From("users").Where("id", "poop", 1).ToSQL()
//	// errors.Is(err, query.ErrUnsupportedOperator) == true
//
// A Builder is meant for one statement. It is not safe for concurrent use and
// is never reset, so reusing it after a terminal call keeps adding to the same
// description.
package query

import (
	"fmt"
	"reflect"

	"github.com/gaborage/fluentsql/database/grammar"
	"github.com/gaborage/fluentsql/database/types"
)

// Builder accumulates a query description through chained calls.
type Builder struct {
	grammar   grammar.Grammar
	connector types.Connector
	bound     bool

	desc grammar.Descriptor
	err  error
}

// Option configures a Builder.
type Option func(*Builder)

// WithGrammar selects the dialect used for rendering.
func WithGrammar(g grammar.Grammar) Option {
	return func(b *Builder) {
		b.grammar = g
	}
}

// WithConnector sets the connector used by the executing terminal methods.
func WithConnector(c types.Connector) Option {
	return func(b *Builder) {
		b.connector = c
	}
}

// WithBoundParameters makes executing terminal methods send values as bound
// parameters instead of inline literals. ToSQL is unaffected.
func WithBoundParameters() Option {
	return func(b *Builder) {
		b.bound = true
	}
}

// New creates an empty Builder. Without WithGrammar the grammar follows the
// connector's vendor, falling back to PostgreSQL.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.grammar == nil {
		b.grammar = grammar.Default()
		if b.connector != nil {
			if g, err := grammar.ForVendor(b.connector.DatabaseType()); err == nil {
				b.grammar = g
			}
		}
	}
	return b
}

// Err returns the first structural error recorded by a fluent call, if any.
func (b *Builder) Err() error {
	return b.err
}

// Grammar returns the grammar the builder renders with.
func (b *Builder) Grammar() grammar.Grammar {
	return b.grammar
}

// Descriptor returns a copy of the accumulated description.
func (b *Builder) Descriptor() *grammar.Descriptor {
	return b.desc.Clone()
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// From sets the target table. The last call wins.
func (b *Builder) From(table string) *Builder {
	b.desc.Table = table
	return b
}

// Select replaces the selected columns. No columns selects *.
func (b *Builder) Select(columns ...string) *Builder {
	if len(columns) == 0 {
		b.desc.Columns = nil
		return b
	}
	b.desc.Columns = append([]string(nil), columns...)
	return b
}

// AddSelect appends one column to the current selection.
func (b *Builder) AddSelect(column string) *Builder {
	b.desc.Columns = append(b.desc.Columns, column)
	return b
}

// Distinct adds DISTINCT to the select list.
func (b *Builder) Distinct() *Builder {
	b.desc.Distinct = true
	return b
}

// Limit sets the maximum number of rows. Bounds are the caller's responsibility.
func (b *Builder) Limit(n int) *Builder {
	b.desc.Limit = &n
	return b
}

// Offset sets the number of rows to skip.
func (b *Builder) Offset(n int) *Builder {
	b.desc.Offset = &n
	return b
}

// OrderBy sets the single ORDER BY clause. Direction defaults to ASC and is
// matched case-insensitively.
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	dir := grammar.Asc
	switch len(direction) {
	case 0:
	case 1:
		parsed, ok := grammar.ParseDirection(direction[0])
		if !ok {
			return b.fail(fmt.Errorf("%w: %q", ErrInvalidOrderDirection, direction[0]))
		}
		dir = parsed
	default:
		return b.fail(fmt.Errorf("%w: orderBy accepts 1 or 2 arguments, got %d", ErrInvalidArgumentCount, len(direction)+1))
	}

	b.desc.Order = &grammar.Order{Column: column, Direction: dir}
	return b
}

// OrderByAsc orders by column ascending.
func (b *Builder) OrderByAsc(column string) *Builder {
	return b.OrderBy(column, string(grammar.Asc))
}

// OrderByDesc orders by column descending.
func (b *Builder) OrderByDesc(column string) *Builder {
	return b.OrderBy(column, string(grammar.Desc))
}

// toValues flattens any slice or array into []any.
func toValues(values any) ([]any, bool) {
	if vs, ok := values.([]any); ok {
		return vs, true
	}
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
