package sparrow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/pkg/query"
	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/sparrow"
	"github.com/evertheylen/sparrow/pkg/sqlite"
	"github.com/evertheylen/sparrow/pkg/types"
)

func openTestModel(t *testing.T) (*sparrow.Model, *schema.EntityType, *schema.EntityType) {
	t.Helper()

	user := schema.MustDefine("User", schema.Def{
		RealTime: true,
		Props: []schema.Property{
			{Name: "name", Type: schema.String},
			{Name: "age", Type: schema.Int, Optional: true},
		},
		Key: schema.AutoKey("uid"),
	})
	msg := schema.MustDefine("Message", schema.Def{
		RealTime: true,
		Props: []schema.Property{
			{Name: "text", Type: schema.String},
		},
		Refs: []schema.Reference{
			{Name: "author", Target: user, RealTime: true},
		},
		Key: schema.AutoKey("mid"),
	})

	m, err := sqlite.Open(types.Config{
		Driver: types.DriverSQLite,
		DSN:    "file::memory:",
	}, zap.NewNop(), user, msg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.CreateAllTables(context.Background()))
	return m, user, msg
}

func TestLifecycleAgainstSQLite(t *testing.T) {
	m, user, _ := openTestModel(t)
	ctx := context.Background()

	evert, err := m.New(user, types.Row{"name": "Evert", "age": 25})
	require.NoError(t, err)
	require.NoError(t, evert.Insert(ctx))

	key, err := evert.Key()
	require.NoError(t, err)
	require.Equal(t, 1, key.Len())

	// Finding by key returns the very same in-memory instance.
	found, err := m.FindByKey(ctx, user, key)
	require.NoError(t, err)
	assert.Same(t, evert, found)

	// Write-through update is visible to fresh queries.
	require.NoError(t, evert.Set("age", 26))
	require.NoError(t, evert.Update(ctx))

	got, err := m.Get(user, query.C("name", query.OpEq, "Evert")).Single(ctx)
	require.NoError(t, err)
	assert.Same(t, evert, got)
	assert.EqualValues(t, 26, got.Get("age"))

	require.NoError(t, evert.Delete(ctx))
	assert.True(t, evert.Deleted())

	_, err = m.FindByKey(ctx, user, key)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestForeignKeyEnforcementAgainstSQLite(t *testing.T) {
	m, user, msg := openTestModel(t)
	ctx := context.Background()

	alice, err := m.New(user, types.Row{"name": "alice"})
	require.NoError(t, err)
	require.NoError(t, alice.Insert(ctx))

	post, err := m.New(msg, types.Row{"text": "hi"})
	require.NoError(t, err)
	require.NoError(t, post.SetReference("author", alice))
	require.NoError(t, post.Insert(ctx))

	// Deleting a still-referenced row is rejected by the storage layer.
	err = alice.Delete(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.False(t, alice.Deleted())

	require.NoError(t, post.Delete(ctx))
	require.NoError(t, alice.Delete(ctx))
}

func TestQueryBuilderAgainstSQLite(t *testing.T) {
	m, user, _ := openTestModel(t)
	ctx := context.Background()

	for _, row := range []types.Row{
		{"name": "a", "age": 20},
		{"name": "b", "age": 30},
		{"name": "c", "age": 40},
	} {
		in, err := m.New(user, row)
		require.NoError(t, err)
		require.NoError(t, in.Insert(ctx))
	}

	got, err := m.Get(user, query.C("age", query.OpGt, 20)).
		OrderBy(query.Order{Column: "age", Dir: query.Desc}).
		Limit(1).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Get("name"))

	raw, err := m.Raw(user, "SELECT * FROM table_User WHERE age < %(cutoff)s", nil).
		WithData(types.Row{"cutoff": 35}).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}
