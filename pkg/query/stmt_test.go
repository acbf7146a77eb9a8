package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertheylen/sparrow/pkg/types"
)

// sliceRows is a types.Rows over a fixed slice, for testing Result.
type sliceRows struct {
	rows   []types.Row
	pos    int
	closed bool
}

func (s *sliceRows) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceRows) Row() types.Row { return s.rows[s.pos-1] }
func (s *sliceRows) Err() error     { return nil }
func (s *sliceRows) Close() error   { s.closed = true; return nil }

func result(rows ...types.Row) (*Result, *sliceRows) {
	sr := &sliceRows{rows: rows}
	return &Result{rows: sr}, sr
}

func TestResultSingle(t *testing.T) {
	t.Run("exactly one row", func(t *testing.T) {
		res, sr := result(types.Row{"uid": int64(1)})
		row, err := res.Single()
		require.NoError(t, err)
		assert.Equal(t, int64(1), row["uid"])
		assert.True(t, sr.closed)
	})

	t.Run("zero rows is NotFound", func(t *testing.T) {
		res, _ := result()
		_, err := res.Single()
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("two rows is MultipleResults", func(t *testing.T) {
		res, _ := result(types.Row{}, types.Row{})
		_, err := res.Single()
		assert.ErrorIs(t, err, types.ErrMultipleResults)
	})
}

func TestResultAll(t *testing.T) {
	res, sr := result(types.Row{"n": 1}, types.Row{"n": 2})
	rows, err := res.All()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.True(t, sr.closed)
}

func TestResultAmount(t *testing.T) {
	res, _ := result(types.Row{"n": 1}, types.Row{"n": 2}, types.Row{"n": 3})
	rows, err := res.Amount(2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestResultCount(t *testing.T) {
	res, _ := result(types.Row{}, types.Row{}, types.Row{})
	n, err := res.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestResultFirst(t *testing.T) {
	res, _ := result(types.Row{"n": 1}, types.Row{"n": 2})
	row, err := res.First()
	require.NoError(t, err)
	assert.Equal(t, 1, row["n"])

	empty, _ := result()
	_, err = empty.First()
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBindNamed(t *testing.T) {
	text := "UPDATE t SET a = %(a)s, b = %(b)s WHERE k = %(k)s"
	data := types.Row{"a": 1, "b": "x", "k": int64(9)}

	rewritten, args, err := BindNamed(text, data, func(i int, name string) string { return "?" })
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a = ?, b = ? WHERE k = ?", rewritten)
	assert.Equal(t, []any{1, "x", int64(9)}, args)
}

func TestBindNamedRepeatedName(t *testing.T) {
	text := "SELECT * FROM t WHERE a = %(x)s OR b = %(x)s"
	_, args, err := BindNamed(text, types.Row{"x": 5}, func(i int, name string) string { return "?" })
	require.NoError(t, err)
	assert.Equal(t, []any{5, 5}, args)
}

func TestBindNamedMissingParam(t *testing.T) {
	_, _, err := BindNamed("SELECT %(gone)s", types.Row{}, func(i int, name string) string { return "?" })
	assert.ErrorIs(t, err, types.ErrMissingParam)
	assert.Contains(t, err.Error(), "gone")
}

func TestBindNamedNoPlaceholders(t *testing.T) {
	text, args, err := BindNamed("SELECT 1", types.Row{}, func(i int, name string) string { return "?" })
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", text)
	assert.Empty(t, args)
}
