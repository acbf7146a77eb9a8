package types

import "context"

// Row maps column names to values for one result row.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Rows is a lazy, finite sequence of result rows. The usual loop is:
//
//	for rows.Next() {
//		row := rows.Row()
//		...
//	}
//	if err := rows.Err(); err != nil { ... }
//
// Close releases the underlying cursor and is safe to call more than once.
type Rows interface {
	// Next advances to the next row, reporting false at the end of the
	// sequence or on error.
	Next() bool

	// Row returns the current row. Only valid after Next reported true.
	Row() Row

	// Err returns the error that terminated iteration, if any.
	Err() error

	Close() error
}

// Executor executes parameterized SQL statements against a storage
// backend. Statement text uses %(name)s named placeholders; params
// supplies the value for every referenced name.
//
// Implementations must report uniqueness violations with an error
// matching ErrDuplicateKey and all other storage failures with an error
// matching ErrStorage. They perform no automatic retry.
//
// Both methods suspend the calling goroutine until the statement
// completes; ctx cancellation aborts the statement without side effects
// on the caller.
type Executor interface {
	// Query executes a statement that yields rows (SELECT, or INSERT
	// with a RETURNING clause).
	Query(ctx context.Context, text string, params Row) (Rows, error)

	// Exec executes a statement that yields no rows and returns the
	// number of affected rows where the backend reports it.
	Exec(ctx context.Context, text string, params Row) (int64, error)

	Close() error
}
