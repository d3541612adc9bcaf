package query

import (
	"context"
	"fmt"

	"github.com/gaborage/fluentsql/database/grammar"
	"github.com/gaborage/fluentsql/database/types"
)

// ToSQL renders the SELECT statement with inline literals. It performs no I/O
// and returns the same text for the same accumulated state.
func (b *Builder) ToSQL() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.grammar.RenderSelect(&b.desc), nil
}

// ToSQLArgs renders the SELECT statement with vendor placeholders and returns
// the values to bind alongside it.
func (b *Builder) ToSQLArgs() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	return grammar.BindSelect(b.grammar, &b.desc)
}

// Get executes the SELECT statement and returns every row.
func (b *Builder) Get(ctx context.Context) ([]types.Row, error) {
	res, err := b.execSelect(ctx, &b.desc)
	if res == nil {
		return nil, err
	}
	return res.Rows, err
}

// First executes the SELECT statement and returns its first row.
// ErrNotFound means the statement ran and matched nothing; connector failures
// come back as *ExecutionError.
func (b *Builder) First(ctx context.Context) (types.Row, error) {
	d := b.desc.Clone()
	if d.Limit == nil {
		one := 1
		d.Limit = &one
	}

	res, err := b.execSelect(ctx, d)
	if res == nil {
		return nil, err
	}
	row := res.First()
	if row == nil && err == nil {
		return nil, ErrNotFound
	}
	return row, err
}

// Find selects columns (all when none are given) of the row whose id equals id.
func (b *Builder) Find(ctx context.Context, id any, columns ...string) (types.Row, error) {
	b.Where("id", id)
	b.Select(columns...)
	return b.First(ctx)
}

// Each runs Get and calls fn once per row in result order. A non-nil error
// from fn stops the iteration and is returned.
func (b *Builder) Each(ctx context.Context, fn func(types.Row) error) error {
	rows, err := b.Get(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts payload as one row into the target table.
func (b *Builder) Create(ctx context.Context, payload map[string]any) (*types.Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("create: %w", ErrEmptyPayload)
	}
	b.desc.CreatePayload = payload

	if b.bound {
		sql, args, err := grammar.BindInsert(b.grammar, &b.desc)
		if err != nil {
			return nil, err
		}
		return b.execute(ctx, sql, args)
	}
	return b.execute(ctx, b.grammar.RenderInsert(&b.desc), nil)
}

// Update sets payload on every row matched by the accumulated conditions.
func (b *Builder) Update(ctx context.Context, payload map[string]any) (*types.Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("update: %w", ErrEmptyPayload)
	}
	b.desc.UpdatePayload = payload

	if b.bound {
		sql, args, err := grammar.BindUpdate(b.grammar, &b.desc, payload)
		if err != nil {
			return nil, err
		}
		return b.execute(ctx, sql, args)
	}
	return b.execute(ctx, b.grammar.RenderUpdate(&b.desc, payload), nil)
}

// Delete removes every row matched by the accumulated conditions.
func (b *Builder) Delete(ctx context.Context) (*types.Result, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.bound {
		sql, args, err := grammar.BindDelete(b.grammar, &b.desc)
		if err != nil {
			return nil, err
		}
		return b.execute(ctx, sql, args)
	}
	return b.execute(ctx, b.grammar.RenderDelete(&b.desc), nil)
}

func (b *Builder) execSelect(ctx context.Context, d *grammar.Descriptor) (*types.Result, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.bound {
		sql, args, err := grammar.BindSelect(b.grammar, d)
		if err != nil {
			return nil, err
		}
		return b.execute(ctx, sql, args)
	}
	return b.execute(ctx, b.grammar.RenderSelect(d), nil)
}

// execute acquires one session, runs exactly one statement and releases the
// session on every path. A release failure is reported only when the
// statement succeeded, and the result is returned with it.
func (b *Builder) execute(ctx context.Context, sql string, args []any) (res *types.Result, err error) {
	if b.connector == nil {
		return nil, ErrNoConnection
	}

	session, err := b.connector.Connect(ctx)
	if err != nil {
		return nil, &ExecutionError{Op: OpConnect, SQL: sql, Err: err}
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = &ExecutionError{Op: OpDisconnect, SQL: sql, Err: closeErr}
		}
	}()

	res, err = session.Query(ctx, sql, args...)
	if err != nil {
		return nil, &ExecutionError{Op: OpQuery, SQL: sql, Err: err}
	}
	return res, nil
}
