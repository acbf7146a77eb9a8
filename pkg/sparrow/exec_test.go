package sparrow

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// fakeCall records one statement the fake executor received.
type fakeCall struct {
	kind string // "query" or "exec"
	text string
	data types.Row
}

// fakeExec is a scripted in-memory executor. Tests assert on the calls
// it records and steer results through queryFn and execFn.
type fakeExec struct {
	mu      sync.Mutex
	calls   []fakeCall
	queryFn func(text string, params types.Row) ([]types.Row, error)
	execFn  func(text string, params types.Row) (int64, error)
	closed  bool
}

func (f *fakeExec) Query(ctx context.Context, text string, params types.Row) (types.Rows, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{kind: "query", text: text, data: params.Clone()})
	fn := f.queryFn
	f.mu.Unlock()
	if fn == nil {
		return rowsOf(nil), nil
	}
	rows, err := fn(text, params)
	if err != nil {
		return nil, err
	}
	return rowsOf(rows), nil
}

func (f *fakeExec) Exec(ctx context.Context, text string, params types.Row) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{kind: "exec", text: text, data: params.Clone()})
	fn := f.execFn
	f.mu.Unlock()
	if fn == nil {
		return 1, nil
	}
	return fn(text, params)
}

func (f *fakeExec) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// callCount returns the number of statements seen so far.
func (f *fakeExec) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// texts returns the statement texts in call order.
func (f *fakeExec) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.text
	}
	return out
}

// rowsOf adapts a row slice to the types.Rows stream contract.
type sliceRows struct {
	rows []types.Row
	i    int
}

func rowsOf(rows []types.Row) *sliceRows { return &sliceRows{rows: rows} }

func (s *sliceRows) Next() bool {
	if s.i >= len(s.rows) {
		return false
	}
	s.i++
	return true
}

func (s *sliceRows) Row() types.Row { return s.rows[s.i-1] }
func (s *sliceRows) Err() error     { return nil }
func (s *sliceRows) Close() error   { return nil }

// userType declares the real-time User entity used throughout the
// engine tests.
func userType(t *testing.T) *schema.EntityType {
	t.Helper()
	u, err := schema.Define("User", schema.Def{
		RealTime: true,
		Props: []schema.Property{
			{Name: "name", Type: schema.String},
			{Name: "age", Type: schema.Int, Optional: true, Constraint: func(v any) bool {
				if v == nil {
					return true
				}
				i, ok := v.(int)
				return ok && i >= 0
			}},
			{Name: "secret", Type: schema.String, Optional: true, OmitJSON: true},
		},
		Key: schema.AutoKey("uid"),
	})
	require.NoError(t, err)
	return u
}

// messageType declares a real-time Message with a real-time author
// reference to User.
func messageType(t *testing.T, user *schema.EntityType) *schema.EntityType {
	t.Helper()
	m, err := schema.Define("Message", schema.Def{
		RealTime: true,
		Props: []schema.Property{
			{Name: "text", Type: schema.String},
		},
		Refs: []schema.Reference{
			{Name: "author", Target: user, RealTime: true},
		},
		Key: schema.AutoKey("mid"),
	})
	require.NoError(t, err)
	return m
}

// tagType declares a non-real-time entity with a natural key.
func tagType(t *testing.T) *schema.EntityType {
	t.Helper()
	tt, err := schema.Define("Tag", schema.Def{
		Props: []schema.Property{
			{Name: "slug", Type: schema.String},
			{Name: "label", Type: schema.String, Optional: true},
		},
		Key: schema.KeyOn("slug"),
	})
	require.NoError(t, err)
	return tt
}

// newTestModel builds a model over a fake executor whose inserts hand
// out sequential auto keys.
func newTestModel(t *testing.T) (*Model, *fakeExec, *schema.EntityType, *schema.EntityType, *schema.EntityType) {
	t.Helper()
	user := userType(t)
	msg := messageType(t, user)
	tag := tagType(t)

	fe := &fakeExec{}
	var nextID int64
	fe.queryFn = func(text string, params types.Row) ([]types.Row, error) {
		switch {
		case strings.HasPrefix(text, "INSERT INTO table_User"):
			nextID++
			return []types.Row{{"uid": nextID}}, nil
		case strings.HasPrefix(text, "INSERT INTO table_Message"):
			nextID++
			return []types.Row{{"mid": nextID}}, nil
		default:
			return nil, nil
		}
	}

	m, err := New(Options{
		Executor: fe,
		Types:    []*schema.EntityType{user, msg, tag},
	})
	require.NoError(t, err)
	return m, fe, user, msg, tag
}

// mustInsert builds and inserts an instance in one step.
func mustInsert(t *testing.T, m *Model, typ *schema.EntityType, values types.Row) *Instance {
	t.Helper()
	in, err := m.New(typ, values)
	require.NoError(t, err)
	require.NoError(t, in.Insert(context.Background()))
	return in
}
