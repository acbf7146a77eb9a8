package query

import (
	"context"
	"fmt"
	"regexp"

	"github.com/evertheylen/sparrow/pkg/types"
)

// Stmt is one parameterized statement: text with %(name)s placeholders
// plus the data bound so far. Stmt values are immutable; WithData returns
// a copy, so a compiled statement can be shared and reused concurrently.
type Stmt struct {
	text string
	data types.Row
}

// Raw wraps literal statement text and its named parameters. The text
// must reference caller data only through %(name)s placeholders.
func Raw(text string, data types.Row) *Stmt {
	return &Stmt{text: text, data: data.Clone()}
}

// Text returns the statement text.
func (s *Stmt) Text() string { return s.text }

// Data returns the data bound so far. The caller must not modify it.
func (s *Stmt) Data() types.Row { return s.data }

// WithData returns a copy of the statement with the given parameters
// bound on top of the existing ones.
func (s *Stmt) WithData(data types.Row) *Stmt {
	merged := s.data.Clone()
	for k, v := range data {
		merged[k] = v
	}
	return &Stmt{text: s.text, data: merged}
}

// With binds a single parameter, returning a copy.
func (s *Stmt) With(name string, value any) *Stmt {
	return s.WithData(types.Row{name: value})
}

// Exec executes the statement and returns a Result handle over its rows.
func (s *Stmt) Exec(ctx context.Context, ex types.Executor) (*Result, error) {
	rows, err := ex.Query(ctx, s.text, s.data)
	if err != nil {
		return nil, err
	}
	return &Result{rows: rows}, nil
}

// Run executes the statement discarding any rows, returning the number
// of affected rows where the backend reports it.
func (s *Stmt) Run(ctx context.Context, ex types.Executor) (int64, error) {
	return ex.Exec(ctx, s.text, s.data)
}

// All executes the statement and drains every row.
func (s *Stmt) All(ctx context.Context, ex types.Executor) ([]types.Row, error) {
	res, err := s.Exec(ctx, ex)
	if err != nil {
		return nil, err
	}
	return res.All()
}

// Single executes the statement and returns its only row. It fails with
// ErrNotFound on zero rows and ErrMultipleResults on more than one.
func (s *Stmt) Single(ctx context.Context, ex types.Executor) (types.Row, error) {
	res, err := s.Exec(ctx, ex)
	if err != nil {
		return nil, err
	}
	return res.Single()
}

// Result wraps the lazy row stream of one executed statement. The
// consuming methods drain the stream and close it; a Result is good for
// one such call.
type Result struct {
	rows types.Rows
}

// Rows exposes the underlying stream for manual iteration. The caller
// takes over closing it.
func (r *Result) Rows() types.Rows { return r.rows }

// Close releases the underlying stream.
func (r *Result) Close() error { return r.rows.Close() }

// All returns every remaining row.
func (r *Result) All() ([]types.Row, error) {
	defer r.rows.Close()
	var out []types.Row
	for r.rows.Next() {
		out = append(out, r.rows.Row())
	}
	if err := r.rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Amount returns up to n rows.
func (r *Result) Amount(n int) ([]types.Row, error) {
	defer r.rows.Close()
	var out []types.Row
	for len(out) < n && r.rows.Next() {
		out = append(out, r.rows.Row())
	}
	if err := r.rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Single returns the only row, failing with ErrNotFound on zero rows and
// ErrMultipleResults on more than one.
func (r *Result) Single() (types.Row, error) {
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, types.ErrNotFound
	}
	row := r.rows.Row()
	if r.rows.Next() {
		return nil, types.ErrMultipleResults
	}
	if err := r.rows.Err(); err != nil {
		return nil, err
	}
	return row, nil
}

// First returns the first row without requiring it to be the only one.
// It fails with ErrNotFound on zero rows.
func (r *Result) First() (types.Row, error) {
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, types.ErrNotFound
	}
	return r.rows.Row(), nil
}

// Count drains the stream and returns the number of rows seen.
func (r *Result) Count() (int, error) {
	defer r.rows.Close()
	n := 0
	for r.rows.Next() {
		n++
	}
	if err := r.rows.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// paramPattern matches %(name)s named placeholders.
var paramPattern = regexp.MustCompile(`%\(([A-Za-z0-9_]+)\)s`)

// BindNamed rewrites every %(name)s placeholder in text using the
// placeholder callback (called with the zero-based placeholder index and
// name) and collects the bound arguments in placeholder order. It fails
// with ErrMissingParam when data lacks a referenced name.
func BindNamed(text string, data types.Row, placeholder func(i int, name string) string) (string, []any, error) {
	var args []any
	var missing error
	i := 0
	rewritten := paramPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := paramPattern.FindStringSubmatch(m)[1]
		value, ok := data[name]
		if !ok && missing == nil {
			missing = fmt.Errorf("%w: %s", types.ErrMissingParam, name)
		}
		args = append(args, value)
		ph := placeholder(i, name)
		i++
		return ph
	})
	if missing != nil {
		return "", nil, missing
	}
	return rewritten, args, nil
}
