package testing

import (
	"fmt"
	"reflect"

	"github.com/gaborage/fluentsql/database/types"
)

// RowSet is a fluent collection of rows returned by a TestConnector expectation.
//
//	rows := NewRowSet("id", "name").
//	    AddRow(1, "Alice").
//	    AddRow(2, "Bob")
type RowSet struct {
	columns []string
	rows    [][]any
}

// NewRowSet creates an empty RowSet with the given column names.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{
		columns: columns,
		rows:    make([][]any, 0),
	}
}

// AddRow appends one row. Panics if the value count does not match the columns.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}
	rs.rows = append(rs.rows, values)
	return rs
}

// AddRows appends count rows produced by generator.
func (rs *RowSet) AddRows(count int, generator func(i int) []any) *RowSet {
	for i := 0; i < count; i++ {
		rs.AddRow(generator(i)...)
	}
	return rs
}

// AddRowsFromStructs appends one row per struct, reading fields by their `db` tag.
//
//	type User struct {
//	    ID   int64  `db:"id"`
//	    Name string `db:"name"`
//	}
//
//	rs := NewRowSet("id", "name").AddRowsFromStructs(&User{ID: 1, Name: "Alice"})
func (rs *RowSet) AddRowsFromStructs(structs ...any) *RowSet {
	for _, s := range structs {
		rs.AddRow(extractStructValues(s, rs.columns)...)
	}
	return rs
}

// RowCount returns the number of rows.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns the column names.
func (rs *RowSet) Columns() []string {
	return append([]string{}, rs.columns...)
}

// toRows copies the data into result rows keyed by column name.
func (rs *RowSet) toRows() []types.Row {
	out := make([]types.Row, len(rs.rows))
	for i, values := range rs.rows {
		row := make(types.Row, len(rs.columns))
		for j, col := range rs.columns {
			row[col] = values[j]
		}
		out[i] = row
	}
	return out
}

func extractStructValues(structPtr any, columns []string) []any {
	v := reflect.ValueOf(structPtr)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("extractStructValues: expected struct or pointer to struct, got %T", structPtr))
	}

	t := v.Type()
	tagToField := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag != "" && tag != "-" {
			tagToField[tag] = v.Field(i)
		}
	}

	values := make([]any, len(columns))
	for i, col := range columns {
		field, ok := tagToField[col]
		if !ok {
			panic(fmt.Sprintf("extractStructValues: column %q not found in struct %T (check db tags)", col, structPtr))
		}
		values[i] = field.Interface()
	}
	return values
}
