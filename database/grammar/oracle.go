package grammar

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/gaborage/fluentsql/database/types"
)

// Oracle renders Oracle 12c+ SQL.
//
// Identifiers are always double-quoted, which also keeps reserved words such as
// "number" or "level" usable as column names.
type Oracle struct{}

var _ Grammar = Oracle{}

// Name returns the Oracle vendor identifier
func (Oracle) Name() string { return types.Oracle }

// RenderSelect renders a SELECT statement
func (g Oracle) RenderSelect(d *Descriptor) string { return renderSelect(g, d) }

// RenderInsert renders an INSERT statement from the create payload
func (g Oracle) RenderInsert(d *Descriptor) string { return renderInsert(g, d) }

// RenderUpdate renders an UPDATE statement scoped by the descriptor's conditions
func (g Oracle) RenderUpdate(d *Descriptor, payload map[string]any) string {
	return renderUpdate(g, d, payload)
}

// RenderDelete renders a DELETE statement scoped by the descriptor's conditions
func (g Oracle) RenderDelete(d *Descriptor) string { return renderDelete(g, d) }

// Oracle uses NUMBER(1) for boolean
func (Oracle) boolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (Oracle) bindBool(v bool) any {
	if v {
		return 1
	}
	return 0
}

// pagination builds an Oracle OFFSET ... ROWS FETCH NEXT ... ROWS ONLY suffix.
func (Oracle) pagination(limit, offset *int) string {
	parts := make([]string, 0, 2)
	if offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d ROWS", *offset))
	}
	if limit != nil {
		parts = append(parts, fmt.Sprintf("FETCH NEXT %d ROWS ONLY", *limit))
	}
	return strings.Join(parts, " ")
}

// Oracle uses :1, :2, ... placeholders
func (Oracle) placeholder() squirrel.PlaceholderFormat { return squirrel.Colon }
