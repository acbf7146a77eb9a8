package sparrow

import (
	"context"
	"fmt"

	"github.com/evertheylen/sparrow/pkg/query"
	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// Query is a SELECT or raw statement scoped to one entity type. Every
// row it yields passes through the identity cache, so repeated queries
// never produce duplicate in-memory instances for the same key.
type Query struct {
	m   *Model
	t   *schema.EntityType
	sel *query.SelectBuilder
	raw *query.Stmt
}

// Get starts a query on an entity type. Conditions are ANDed; chain
// Where, OrderBy, Limit and Offset to refine it.
func (m *Model) Get(t *schema.EntityType, conds ...query.Cond) *Query {
	return &Query{m: m, t: t, sel: query.Select(t.TableName(), conds...)}
}

// Raw wraps literal statement text whose rows are interpreted as
// instances of the entity type. Caller data must bind through %(name)s
// placeholders in data, never by string concatenation.
func (m *Model) Raw(t *schema.EntityType, text string, data types.Row) *Query {
	return &Query{m: m, t: t, raw: query.Raw(text, data)}
}

// Where appends conditions to a Get query.
func (q *Query) Where(conds ...query.Cond) *Query {
	q.mustBuilder().Where(conds...)
	return q
}

// OrderBy appends ORDER BY terms to a Get query.
func (q *Query) OrderBy(orders ...query.Order) *Query {
	q.mustBuilder().OrderBy(orders...)
	return q
}

// Limit caps the number of rows of a Get query.
func (q *Query) Limit(n int) *Query {
	q.mustBuilder().Limit(n)
	return q
}

// Offset skips rows of a Get query.
func (q *Query) Offset(n int) *Query {
	q.mustBuilder().Offset(n)
	return q
}

func (q *Query) mustBuilder() *query.SelectBuilder {
	if q.sel == nil {
		panic("sparrow: builder methods are not available on a Raw query")
	}
	return q.sel
}

// WithData binds named parameters of a Raw query.
func (q *Query) WithData(data types.Row) *Query {
	if q.raw == nil {
		panic("sparrow: WithData is only available on a Raw query")
	}
	return &Query{m: q.m, t: q.t, raw: q.raw.WithData(data)}
}

// Stmt compiles the query to its statement.
func (q *Query) Stmt() *query.Stmt {
	if q.raw != nil {
		return q.raw
	}
	return q.sel.Build()
}

// All executes the query and returns every matching instance.
func (q *Query) All(ctx context.Context) ([]*Instance, error) {
	rows, err := q.Stmt().All(ctx, q.m.exec)
	if err != nil {
		return nil, err
	}
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	out := make([]*Instance, 0, len(rows))
	for _, row := range rows {
		in, err := q.m.getOrCreateLocked(q.t, row)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// Single executes the query and returns its only instance, failing with
// ErrNotFound on zero rows and ErrMultipleResults on more than one.
func (q *Query) Single(ctx context.Context) (*Instance, error) {
	row, err := q.Stmt().Single(ctx, q.m.exec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.t.Name(), err)
	}
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	return q.m.getOrCreateLocked(q.t, row)
}
