package sparrow

import (
	"runtime"
	"weak"

	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// cache is the identity map of one entity type: determined key → weakly
// held live instance. Entries appear on first successful fetch or insert
// and disappear once the garbage collector finds the instance
// unreachable; there is no explicit eviction.
//
// All methods require the model lock.
type cache struct {
	model   *Model
	typ     *schema.EntityType
	entries map[any]weak.Pointer[Instance]
}

func newCache(m *Model, typ *schema.EntityType) *cache {
	return &cache{model: m, typ: typ, entries: make(map[any]weak.Pointer[Instance])}
}

// evictArg carries what the GC cleanup needs to undo one registration.
// It must not reference the instance strongly.
type evictArg struct {
	canon any
	wp    weak.Pointer[Instance]
}

// peek returns the cached instance for key, or nil. A dead entry is
// dropped on the way.
func (c *cache) peek(key types.Key) *Instance {
	canon := key.Canonical()
	ptr, ok := c.entries[canon]
	if !ok {
		return nil
	}
	in := ptr.Value()
	if in == nil {
		delete(c.entries, canon)
		return nil
	}
	return in
}

// put registers the instance under its determined key and arms the GC
// cleanup that evicts the entry once the instance becomes unreachable.
func (c *cache) put(key types.Key, in *Instance) {
	canon := key.Canonical()
	wp := weak.Make(in)
	c.entries[canon] = wp
	runtime.AddCleanup(in, c.model.evictFn(c.typ.Name()), evictArg{canon: canon, wp: wp})
}

// remove drops the entry for key, if any.
func (c *cache) remove(key types.Key) {
	delete(c.entries, key.Canonical())
}

func (c *cache) len() int { return len(c.entries) }

// evictFn returns the cleanup invoked by the garbage collector when a
// cached instance of the named type becomes unreachable. It drops the
// cache entry, unless the key has been re-cached with a newer instance
// in the meantime, and prunes the instance's reference edges.
func (m *Model) evictFn(typeName string) func(evictArg) {
	return func(arg evictArg) {
		m.mu.Lock()
		defer m.mu.Unlock()
		c, ok := m.caches[typeName]
		if !ok {
			return
		}
		if cur, ok := c.entries[arg.canon]; ok && cur == arg.wp {
			delete(c.entries, arg.canon)
			m.log.Debug("evicted unreachable instance",
				zap.String("entity", typeName))
		}
		m.graph.removeAllFromPointer(arg.wp)
	}
}
