package grammar

import (
	"strconv"

	"github.com/Masterminds/squirrel"

	"github.com/gaborage/fluentsql/database/types"
)

// Postgres renders PostgreSQL SQL. It is the default grammar.
type Postgres struct{}

var _ Grammar = Postgres{}

// Name returns the PostgreSQL vendor identifier
func (Postgres) Name() string { return types.PostgreSQL }

// RenderSelect renders a SELECT statement
func (g Postgres) RenderSelect(d *Descriptor) string { return renderSelect(g, d) }

// RenderInsert renders an INSERT statement from the create payload
func (g Postgres) RenderInsert(d *Descriptor) string { return renderInsert(g, d) }

// RenderUpdate renders an UPDATE statement scoped by the descriptor's conditions
func (g Postgres) RenderUpdate(d *Descriptor, payload map[string]any) string {
	return renderUpdate(g, d, payload)
}

// RenderDelete renders a DELETE statement scoped by the descriptor's conditions
func (g Postgres) RenderDelete(d *Descriptor) string { return renderDelete(g, d) }

func (Postgres) boolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// PostgreSQL has native boolean support
func (Postgres) bindBool(v bool) any { return v }

func (Postgres) pagination(limit, offset *int) string {
	return limitOffsetClause(limit, offset, "")
}

// PostgreSQL uses $1, $2, ... placeholders
func (Postgres) placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

// limitOffsetClause renders LIMIT/OFFSET. When only an offset is set, unbounded
// is used as the LIMIT value if the dialect requires one.
func limitOffsetClause(limit, offset *int, unbounded string) string {
	switch {
	case limit != nil && offset != nil:
		return "LIMIT " + strconv.Itoa(*limit) + " OFFSET " + strconv.Itoa(*offset)
	case limit != nil:
		return "LIMIT " + strconv.Itoa(*limit)
	case offset != nil && unbounded != "":
		return "LIMIT " + unbounded + " OFFSET " + strconv.Itoa(*offset)
	case offset != nil:
		return "OFFSET " + strconv.Itoa(*offset)
	default:
		return ""
	}
}
