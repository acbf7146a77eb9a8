package query

import (
	"fmt"
	"strings"

	"github.com/evertheylen/sparrow/pkg/types"
)

// SelectBuilder accumulates a SELECT over one table. Conditions added
// through Where are ANDed together. The zero limit and offset mean
// "unset".
type SelectBuilder struct {
	table  string
	conds  []Cond
	orders []Order
	limit  int
	offset int
}

// Select starts a SELECT * query on the given table.
func Select(table string, conds ...Cond) *SelectBuilder {
	return &SelectBuilder{table: table, conds: conds, limit: -1, offset: -1}
}

// Where appends conditions; all conditions are ANDed.
func (b *SelectBuilder) Where(conds ...Cond) *SelectBuilder {
	b.conds = append(b.conds, conds...)
	return b
}

// OrderBy appends ORDER BY terms.
func (b *SelectBuilder) OrderBy(orders ...Order) *SelectBuilder {
	b.orders = append(b.orders, orders...)
	return b
}

// Limit caps the number of returned rows.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Offset skips the first n rows.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = n
	return b
}

// Build compiles the query into a Stmt. Statements built purely from
// Field placeholders carry no data and are reusable with WithData.
func (b *SelectBuilder) Build() *Stmt {
	data := types.Row{}
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.table)
	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		parts := make([]string, len(b.conds))
		for i, c := range b.conds {
			parts[i] = "(" + c.render(data) + ")"
		}
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if len(b.orders) > 0 {
		terms := make([]string, len(b.orders))
		for i, o := range b.orders {
			terms[i] = o.String()
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if b.limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	if b.offset >= 0 {
		fmt.Fprintf(&sb, " OFFSET %d", b.offset)
	}
	return &Stmt{text: sb.String(), data: data}
}

// Insert builds an INSERT statement binding every column as a deferred
// Field parameter. Optional returning columns append a RETURNING clause
// for reading back database-assigned values.
func Insert(table string, columns []string, returning ...string) *Stmt {
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = Field(col).placeholder()
	}
	text := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if len(returning) > 0 {
		text += " RETURNING " + strings.Join(returning, ", ")
	}
	return &Stmt{text: text, data: types.Row{}}
}

// Update builds an UPDATE statement setting setColumns and keyed on
// keyColumns, all as deferred Field parameters.
func Update(table string, setColumns, keyColumns []string) *Stmt {
	sets := make([]string, len(setColumns))
	for i, col := range setColumns {
		sets[i] = col + " = " + Field(col).placeholder()
	}
	text := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table, strings.Join(sets, ", "), keyClause(keyColumns))
	return &Stmt{text: text, data: types.Row{}}
}

// Delete builds a DELETE statement keyed on keyColumns as deferred Field
// parameters.
func Delete(table string, keyColumns []string) *Stmt {
	text := fmt.Sprintf("DELETE FROM %s WHERE %s", table, keyClause(keyColumns))
	return &Stmt{text: text, data: types.Row{}}
}

func keyClause(keyColumns []string) string {
	parts := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		parts[i] = col + " = " + Field(col).placeholder()
	}
	return strings.Join(parts, " AND ")
}
