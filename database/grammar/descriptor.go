package grammar

import (
	"maps"
	"slices"
	"strings"
)

// Operator is a comparison operator accepted in a WHERE condition or JOIN clause.
type Operator string

const (
	OpEq   Operator = "="
	OpNe   Operator = "!="
	OpGt   Operator = ">"
	OpLt   Operator = "<"
	OpGte  Operator = ">="
	OpLte  Operator = "<="
	OpLike Operator = "like"
	OpIn   Operator = "IN"
)

var whereOperators = []Operator{OpEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpLike}

// ParseOperator normalizes op and reports whether it may be used in a WHERE condition.
// IN is deliberately excluded; it is only reachable through WhereIn.
func ParseOperator(op string) (Operator, bool) {
	candidate := Operator(strings.ToLower(strings.TrimSpace(op)))
	if slices.Contains(whereOperators, candidate) {
		return candidate, true
	}
	return "", false
}

// IsJoinOperator reports whether op may compare two columns in a JOIN clause.
func IsJoinOperator(op Operator) bool {
	return op != OpLike && op != OpIn && slices.Contains(whereOperators, op)
}

// keyword returns the operator as it appears in SQL text.
func (o Operator) keyword() string {
	if o == OpLike {
		return "LIKE"
	}
	return string(o)
}

// Direction is the ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case.
func ParseDirection(dir string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(dir))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	default:
		return "", false
	}
}

// JoinType selects the JOIN keyword.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
	CrossJoin JoinType = "CROSS"
)

// ParseJoinType accepts the five join kinds in any case.
func ParseJoinType(kind string) (JoinType, bool) {
	jt := JoinType(strings.ToUpper(strings.TrimSpace(kind)))
	switch jt {
	case InnerJoin, LeftJoin, RightJoin, FullJoin, CrossJoin:
		return jt, true
	default:
		return "", false
	}
}

// nullToken is the type of Null.
type nullToken struct{}

// Null is the SQL NULL token. Compared with = or != it renders IS NULL / IS NOT NULL,
// as do nil and the bare string "NULL".
var Null = nullToken{}

// Condition is one WHERE condition. The set of implementations is closed.
type Condition interface {
	condition()
}

// Compare is a column compared against a single value.
type Compare struct {
	Column   string
	Operator Operator
	Value    any
	Negated  bool
}

// In is a column tested for membership in a literal list.
type In struct {
	Column  string
	Values  []any
	Negated bool
}

func (Compare) condition() {}
func (In) condition()      {}

// Join describes one joined relation.
type Join struct {
	Table       string
	LeftColumn  string
	Operator    Operator
	RightColumn string
	Type        JoinType
}

// Order is the single ORDER BY clause a descriptor can carry.
type Order struct {
	Column    string
	Direction Direction
}

// Descriptor is the accumulated description of one statement.
// It is rendered by a Grammar and never mutated by it.
type Descriptor struct {
	Table      string
	Columns    []string
	Conditions []Condition
	Joins      []Join
	Order      *Order
	Limit      *int
	Offset     *int
	Distinct   bool

	CreatePayload map[string]any
	UpdatePayload map[string]any
}

// Clone returns a copy that can be modified without touching d.
func (d *Descriptor) Clone() *Descriptor {
	c := &Descriptor{
		Table:         d.Table,
		Columns:       slices.Clone(d.Columns),
		Conditions:    slices.Clone(d.Conditions),
		Joins:         slices.Clone(d.Joins),
		Distinct:      d.Distinct,
		CreatePayload: maps.Clone(d.CreatePayload),
		UpdatePayload: maps.Clone(d.UpdatePayload),
	}
	if d.Order != nil {
		o := *d.Order
		c.Order = &o
	}
	if d.Limit != nil {
		l := *d.Limit
		c.Limit = &l
	}
	if d.Offset != nil {
		o := *d.Offset
		c.Offset = &o
	}
	return c
}

// HasJoins reports whether string values in WHERE are rendered as identifier references.
func (d *Descriptor) HasJoins() bool {
	return len(d.Joins) > 0
}
