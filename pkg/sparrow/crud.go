package sparrow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// Insert persists a NEW instance. Constraints are re-checked before any
// storage call. For an auto-generated key the database-assigned value is
// read back and the key becomes determined exactly once; the instance
// then enters the identity cache.
//
// A failed insert (including ErrDuplicateKey from a lost uniqueness
// race) leaves the instance NEW and the cache untouched, so the call may
// be retried.
func (in *Instance) Insert(ctx context.Context) error {
	m := in.model
	t := in.typ

	m.mu.Lock()
	switch in.st {
	case stateDeleted:
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", t.Name(), types.ErrAlreadyDeleted)
	case stateInserted:
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", t.Name(), types.ErrAlreadyInserted)
	}
	if err := t.CheckRow(in.values); err != nil {
		m.mu.Unlock()
		return err
	}
	if !t.Key().Auto() && in.key.IsZero() {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", t.Name(), types.ErrUndeterminedKey)
	}
	data := make(types.Row, len(t.ValueColumns()))
	for _, col := range t.ValueColumns() {
		data[col] = in.values[col]
	}
	stmt := t.InsertStmt().WithData(data)
	m.mu.Unlock()

	var generated any
	if t.Key().Auto() {
		row, err := stmt.Single(ctx, m.exec)
		if err != nil {
			return err
		}
		generated = row[t.Key().AutoColumn()]
	} else {
		if _, err := stmt.Run(ctx, m.exec); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if t.Key().Auto() {
		in.values[t.Key().AutoColumn()] = generated
		in.key = types.NewKey(generated)
	}
	in.st = stateInserted
	if c, ok := m.caches[t.Name()]; ok {
		c.put(in.key, in)
	}
	key := in.key
	m.mu.Unlock()

	m.log.Debug("inserted instance",
		zap.String("entity", t.Name()), zap.Stringer("key", key))
	return nil
}

// Update writes the instance's current values through to storage, keyed
// on the determined key, then notifies the instance's own listeners with
// OnUpdate. Instances holding a real-time reference to this one are not
// notified; reference fan-out happens at edge creation and delete time
// only.
func (in *Instance) Update(ctx context.Context) error {
	m := in.model
	t := in.typ

	m.mu.Lock()
	if err := in.requireInsertedLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := t.CheckRow(in.values); err != nil {
		m.mu.Unlock()
		return err
	}
	data := make(types.Row, len(t.Columns()))
	for _, col := range t.ValueColumns() {
		data[col] = in.values[col]
	}
	keyData, err := t.KeyData(in.key)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	for col, v := range keyData {
		data[col] = v
	}
	stmt := t.UpdateStmt().WithData(data)
	m.mu.Unlock()

	if _, err := stmt.Run(ctx, m.exec); err != nil {
		return err
	}

	m.mu.Lock()
	listeners := in.listenersLocked()
	key := in.key
	m.mu.Unlock()

	m.log.Debug("updated instance",
		zap.String("entity", t.Name()), zap.Stringer("key", key))
	for _, l := range listeners {
		if l.Update != nil {
			l.Update(in)
		}
	}
	return nil
}

// Delete removes the instance from storage and the identity cache,
// drops its outgoing real-time edges, notifies its listeners with
// OnDelete and discards them. Deleted is terminal.
//
// Deleting an instance that others still reference through a real-time
// edge is expected to be rejected by the storage layer's foreign-key
// constraint; if storage does not enforce one, the edges dangle and are
// pruned lazily.
func (in *Instance) Delete(ctx context.Context) error {
	m := in.model
	t := in.typ

	m.mu.Lock()
	if err := in.requireInsertedLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	keyData, err := t.KeyData(in.key)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	stmt := t.DeleteStmt().WithData(keyData)
	m.mu.Unlock()

	if _, err := stmt.Run(ctx, m.exec); err != nil {
		return err
	}

	m.mu.Lock()
	in.st = stateDeleted
	key := in.key
	if c, ok := m.caches[t.Name()]; ok {
		c.remove(key)
	}
	m.graph.removeAllFrom(in)
	if dangling := m.graph.to(t.Name(), key); len(dangling) > 0 {
		m.log.Warn("deleted instance still referenced by real-time edges",
			zap.String("entity", t.Name()),
			zap.Stringer("key", key),
			zap.Int("referencing", len(dangling)))
	}
	listeners := in.listenersLocked()
	in.listeners = nil
	m.mu.Unlock()

	m.log.Debug("deleted instance",
		zap.String("entity", t.Name()), zap.Stringer("key", key))
	for _, l := range listeners {
		if l.Delete != nil {
			l.Delete(in)
		}
	}
	return nil
}

// requireInsertedLocked gates update and delete on the state machine.
func (in *Instance) requireInsertedLocked() error {
	switch in.st {
	case stateDeleted:
		return fmt.Errorf("%s: %w", in.typ.Name(), types.ErrAlreadyDeleted)
	case stateNew:
		return fmt.Errorf("%s: %w", in.typ.Name(), types.ErrUndeterminedKey)
	}
	return nil
}

// Peek returns the cached instance for a key without touching storage,
// or nil when the key is not cached.
func (m *Model) Peek(t *schema.EntityType, key types.Key) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caches[t.Name()]
	if !ok {
		return nil
	}
	return c.peek(key)
}

// FindByKey returns the instance with the given key. A cache hit returns
// immediately with zero storage statements; a miss issues a SELECT by
// key and fails with ErrNotFound when the row does not exist.
func (m *Model) FindByKey(ctx context.Context, t *schema.EntityType, key types.Key) (*Instance, error) {
	m.mu.Lock()
	c, err := m.cacheFor(t)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if in := c.peek(key); in != nil {
		m.mu.Unlock()
		m.log.Debug("find by key hit cache",
			zap.String("entity", t.Name()), zap.Stringer("key", key))
		return in, nil
	}
	keyData, err := t.KeyData(key)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	stmt := t.FindByKeyStmt().WithData(keyData)
	m.mu.Unlock()

	row, err := stmt.Single(ctx, m.exec)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(t, row)
}

// getOrCreateLocked funnels one storage row into the identity cache: a
// still-reachable entry wins and the row is discarded (write-through
// updates resolve staleness, not re-fetch overwrite); otherwise a new
// instance is built from the row and cached.
func (m *Model) getOrCreateLocked(t *schema.EntityType, row types.Row) (*Instance, error) {
	c, err := m.cacheFor(t)
	if err != nil {
		return nil, err
	}
	key := t.KeyFromRow(row)
	if key.IsZero() {
		return nil, fmt.Errorf("%s: row without key: %w", t.Name(), types.ErrUndeterminedKey)
	}
	if in := c.peek(key); in != nil {
		return in, nil
	}

	vals := make(types.Row, len(t.Columns()))
	for _, col := range t.Columns() {
		if v, ok := row[col]; ok {
			vals[col] = v
		}
	}
	if err := t.CheckRow(vals); err != nil {
		return nil, err
	}
	in := &Instance{
		model:  m,
		typ:    t,
		values: vals,
		key:    key,
		st:     stateInserted,
	}
	c.put(key, in)
	return in, nil
}
