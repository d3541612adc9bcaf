package grammar

import (
	"github.com/Masterminds/squirrel"

	"github.com/gaborage/fluentsql/database/types"
)

// SQLite renders SQL for SQLite and libSQL.
type SQLite struct{}

var _ Grammar = SQLite{}

// Name returns the SQLite vendor identifier; libSQL shares it
func (SQLite) Name() string { return types.SQLite }

// RenderSelect renders a SELECT statement
func (g SQLite) RenderSelect(d *Descriptor) string { return renderSelect(g, d) }

// RenderInsert renders an INSERT statement from the create payload
func (g SQLite) RenderInsert(d *Descriptor) string { return renderInsert(g, d) }

// RenderUpdate renders an UPDATE statement scoped by the descriptor's conditions
func (g SQLite) RenderUpdate(d *Descriptor, payload map[string]any) string {
	return renderUpdate(g, d, payload)
}

// RenderDelete renders a DELETE statement scoped by the descriptor's conditions
func (g SQLite) RenderDelete(d *Descriptor) string { return renderDelete(g, d) }

// SQLite stores booleans as integers
func (SQLite) boolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (SQLite) bindBool(v bool) any { return v }

// SQLite rejects OFFSET without LIMIT; -1 means no limit.
func (SQLite) pagination(limit, offset *int) string {
	return limitOffsetClause(limit, offset, "-1")
}

func (SQLite) placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
