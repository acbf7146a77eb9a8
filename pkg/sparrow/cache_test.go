package sparrow

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertheylen/sparrow/pkg/types"
)

// insertAndDrop inserts a user and lets the only strong reference to it
// go out of scope, returning just the key.
func insertAndDrop(t *testing.T, m *Model) types.Key {
	t.Helper()
	in := mustInsert(t, m, m.order[0], types.Row{"name": "ephemeral"})
	key, err := in.Key()
	require.NoError(t, err)
	return key
}

func TestCacheEvictsUnreachableInstances(t *testing.T) {
	m, _, user, _, _ := newTestModel(t)

	key := insertAndDrop(t, m)
	require.Equal(t, 1, m.CacheLen(user))

	// The entry disappears once the collector finds the instance
	// unreachable; give the cleanup a few cycles to run.
	evicted := false
	for i := 0; i < 100 && !evicted; i++ {
		runtime.GC()
		evicted = m.Peek(user, key) == nil && m.CacheLen(user) == 0
		if !evicted {
			time.Sleep(time.Millisecond)
		}
	}
	assert.True(t, evicted, "cache entry survived GC")
}

func TestCacheKeepsReachableInstances(t *testing.T) {
	m, _, user, _, _ := newTestModel(t)

	in := mustInsert(t, m, user, types.Row{"name": "pinned"})
	key, err := in.Key()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		runtime.GC()
	}
	assert.Same(t, in, m.Peek(user, key))

	runtime.KeepAlive(in)
}

func TestReCachedKeySurvivesEvictionOfOldInstance(t *testing.T) {
	m, fe, user, _, _ := newTestModel(t)
	ctx := context.Background()

	key := insertAndDrop(t, m)
	for i := 0; i < 100 && m.CacheLen(user) != 0; i++ {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	require.Zero(t, m.CacheLen(user))

	// Re-fetch the same key: a fresh instance takes the cache slot.
	fe.queryFn = func(text string, params types.Row) ([]types.Row, error) {
		return []types.Row{{"uid": key.Components()[0], "name": "reloaded", "age": nil, "secret": nil}}, nil
	}
	in, err := m.FindByKey(ctx, user, key)
	require.NoError(t, err)
	assert.Equal(t, "reloaded", in.Get("name"))

	// Stray cleanups from the first instance must not evict the new one.
	for i := 0; i < 10; i++ {
		runtime.GC()
	}
	assert.Same(t, in, m.Peek(user, key))
	runtime.KeepAlive(in)
}

func TestGraphEdgesDieWithReferencingInstance(t *testing.T) {
	m, _, user, msg, _ := newTestModel(t)
	ctx := context.Background()

	alice := mustInsert(t, m, user, types.Row{"name": "alice"})

	func() {
		post, err := m.New(msg, types.Row{"text": "hi"})
		require.NoError(t, err)
		require.NoError(t, post.Insert(ctx))
		require.NoError(t, post.SetReference("author", alice))
		require.Len(t, alice.Referencing(), 1)
	}()

	gone := false
	for i := 0; i < 100 && !gone; i++ {
		runtime.GC()
		gone = len(alice.Referencing()) == 0
		if !gone {
			time.Sleep(time.Millisecond)
		}
	}
	assert.True(t, gone, "dead referencing instance still listed")
	runtime.KeepAlive(alice)
}
