// Package sqlite implements the sparrow storage executor over
// database/sql with the modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/evertheylen/sparrow/pkg/query"
	"github.com/evertheylen/sparrow/pkg/types"
)

// Executor runs parameterized statements against one SQLite database.
// Statements are prepared once and cached, keyed by a hash of their
// rendered text, so the precompiled entity statements reuse their
// prepared form across calls.
type Executor struct {
	db  *sql.DB
	log *zap.Logger

	mu    sync.Mutex
	stmts map[uint64]*sql.Stmt
}

// New opens a SQLite database from the config. Foreign key enforcement
// is switched on so deletes of still-referenced rows are rejected.
func New(cfg types.Config, log *zap.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver != types.DriverSQLite {
		return nil, fmt.Errorf("%w: %s", types.ErrDriverUnknown, cfg.Driver)
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, &types.StorageError{Stmt: "open " + cfg.DSN, Err: err}
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
	}
	if strings.Contains(cfg.DSN, ":memory:") {
		// An in-memory database exists per connection; keep one.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, &types.StorageError{Stmt: "PRAGMA foreign_keys = ON", Err: err}
	}

	return &Executor{
		db:    db,
		log:   log,
		stmts: make(map[uint64]*sql.Stmt),
	}, nil
}

// DB exposes the underlying pool.
func (e *Executor) DB() *sql.DB { return e.db }

// prepared returns the cached prepared statement for rendered text,
// preparing and caching it on first use.
func (e *Executor) prepared(ctx context.Context, rendered string) (*sql.Stmt, error) {
	h := xxhash.Sum64String(rendered)
	e.mu.Lock()
	st, ok := e.stmts[h]
	e.mu.Unlock()
	if ok {
		return st, nil
	}

	st, err := e.db.PrepareContext(ctx, rendered)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if prev, ok := e.stmts[h]; ok {
		e.mu.Unlock()
		st.Close()
		return prev, nil
	}
	e.stmts[h] = st
	e.mu.Unlock()
	return st, nil
}

// StmtCacheLen reports the number of cached prepared statements.
func (e *Executor) StmtCacheLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.stmts)
}

// Query executes a row-returning statement.
func (e *Executor) Query(ctx context.Context, text string, params types.Row) (types.Rows, error) {
	rendered, args, err := query.BindNamed(text, params, positional)
	if err != nil {
		return nil, err
	}
	st, err := e.prepared(ctx, rendered)
	if err != nil {
		return nil, mapErr(text, err)
	}
	e.log.Debug("query", zap.String("stmt", rendered))
	rows, err := st.QueryContext(ctx, args...)
	if err != nil {
		return nil, mapErr(text, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, mapErr(text, err)
	}
	return &rowIter{rows: rows, cols: cols}, nil
}

// Exec executes a statement without rows and returns the affected row
// count.
func (e *Executor) Exec(ctx context.Context, text string, params types.Row) (int64, error) {
	rendered, args, err := query.BindNamed(text, params, positional)
	if err != nil {
		return 0, err
	}
	st, err := e.prepared(ctx, rendered)
	if err != nil {
		return 0, mapErr(text, err)
	}
	e.log.Debug("exec", zap.String("stmt", rendered))
	res, err := st.ExecContext(ctx, args...)
	if err != nil {
		return 0, mapErr(text, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Close releases the cached statements and the pool.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs error
	for _, st := range e.stmts {
		errs = multierr.Append(errs, st.Close())
	}
	e.stmts = make(map[uint64]*sql.Stmt)
	return multierr.Append(errs, e.db.Close())
}

func positional(i int, name string) string { return "?" }

// mapErr classifies a driver error per the Executor contract:
// uniqueness violations match ErrDuplicateKey, everything else
// ErrStorage. The original error stays reachable through Unwrap.
func mapErr(stmt string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", types.ErrDuplicateKey, err)
	}
	return &types.StorageError{Stmt: stmt, Err: err}
}

// rowIter adapts sql.Rows to the types.Rows contract, materializing
// each row as a column-name map.
type rowIter struct {
	rows *sql.Rows
	cols []string
	cur  types.Row
	err  error
}

func (it *rowIter) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	vals := make([]any, len(it.cols))
	ptrs := make([]any, len(it.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = err
		return false
	}
	row := make(types.Row, len(it.cols))
	for i, col := range it.cols {
		if b, ok := vals[i].([]byte); ok {
			// Copy out of the driver's scratch buffer.
			vals[i] = string(b)
		}
		row[col] = vals[i]
	}
	it.cur = row
	return true
}

func (it *rowIter) Row() types.Row { return it.cur }
func (it *rowIter) Err() error     { return it.err }
func (it *rowIter) Close() error   { return it.rows.Close() }
