package query

import (
	"strings"

	"github.com/evertheylen/sparrow/pkg/types"
)

// Op is a comparison operator usable in a condition.
type Op string

// Supported comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Cond is a node in a condition tree. Conditions render into statement
// text, collecting their bound values into the statement data as they go.
type Cond interface {
	render(data types.Row) string
}

// comparison is a single column-operator-value leaf.
type comparison struct {
	column string
	op     Op
	value  any
}

// C builds a comparison condition on one column. The value may be a
// Field (deferred to execution), an Unsafe wrapper, or a plain value,
// which binds immediately under a generated name like Unsafe does.
func C(column string, op Op, value any) Cond {
	return comparison{column: column, op: op, value: value}
}

func (c comparison) render(data types.Row) string {
	var ph string
	switch v := c.value.(type) {
	case Field:
		ph = v.placeholder()
	case Unsafe:
		data[v.key] = v.value
		ph = v.placeholder()
	default:
		u := NewUnsafe(v)
		data[u.key] = u.value
		ph = u.placeholder()
	}
	return c.column + " " + string(c.op) + " " + ph
}

// and joins sub-conditions with AND.
type and struct {
	conds []Cond
}

// And groups conditions into a single AND node. There is no OR
// combinator; alternations must go through Raw.
func And(conds ...Cond) Cond {
	return and{conds: conds}
}

func (a and) render(data types.Row) string {
	parts := make([]string, len(a.conds))
	for i, c := range a.conds {
		parts[i] = c.render(data)
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// not negates a sub-condition.
type not struct {
	cond Cond
}

// Not negates a condition.
func Not(c Cond) Cond {
	return not{cond: c}
}

func (n not) render(data types.Row) string {
	return "(NOT " + n.cond.render(data) + ")"
}

// Dir is a sort direction for Order.
type Dir string

// Sort directions.
const (
	Asc  Dir = "ASC"
	Desc Dir = "DESC"
)

// Order is one ORDER BY term.
type Order struct {
	Column string
	Dir    Dir
}

func (o Order) String() string {
	dir := o.Dir
	if dir == "" {
		dir = Asc
	}
	return o.Column + " " + string(dir)
}
