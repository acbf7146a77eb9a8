package sparrow

import (
	"encoding/json"
	"fmt"

	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// instanceState is the lifecycle state of an instance.
type instanceState int

const (
	stateNew instanceState = iota
	stateInserted
	stateDeleted
)

// Instance is one live in-memory record. Within a process there is at
// most one Instance per (entity type, determined key) as long as it is
// reachable; hand-constructed instances join the identity cache at their
// first successful insert.
type Instance struct {
	model *Model
	typ   *schema.EntityType

	// The fields below are guarded by model.mu.
	values    types.Row
	key       types.Key
	st        instanceState
	listeners map[ListenerToken]Listener
}

// New constructs an instance of a registered entity type from property
// values. Keys of values must be declared properties or expanded
// reference columns; the column of an auto-generated key must be absent.
// Property constraints and the object-wide constraint are checked
// immediately.
//
// The instance starts out NEW: not yet persisted and absent from the
// identity cache.
func (m *Model) New(t *schema.EntityType, values types.Row) (*Instance, error) {
	if _, err := m.cacheFor(t); err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(t.ValueColumns()))
	for _, col := range t.ValueColumns() {
		allowed[col] = true
	}
	vals := make(types.Row, len(values))
	for k, v := range values {
		if !allowed[k] {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), k, types.ErrUnknownProperty)
		}
		vals[k] = v
	}
	if err := t.CheckRow(vals); err != nil {
		return nil, err
	}
	return &Instance{
		model:  m,
		typ:    t,
		values: vals,
		key:    t.KeyFromRow(vals),
		st:     stateNew,
	}, nil
}

// Type returns the instance's entity type.
func (in *Instance) Type() *schema.EntityType { return in.typ }

// Model returns the model the instance belongs to.
func (in *Instance) Model() *Model { return in.model }

// Key returns the determined key. It fails with ErrUndeterminedKey
// before a database-generated key has been assigned.
func (in *Instance) Key() (types.Key, error) {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	if in.key.IsZero() {
		return types.Key{}, fmt.Errorf("%s: %w", in.typ.Name(), types.ErrUndeterminedKey)
	}
	return in.key, nil
}

// Inserted reports whether the instance has been persisted.
func (in *Instance) Inserted() bool {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return in.st == stateInserted
}

// Deleted reports whether the instance has been deleted. Deleted is
// terminal; every further storage operation fails with ErrAlreadyDeleted.
func (in *Instance) Deleted() bool {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return in.st == stateDeleted
}

// Get returns the current value of a column.
func (in *Instance) Get(column string) any {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return in.values[column]
}

// Values returns a copy of all column values.
func (in *Instance) Values() types.Row {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return in.values.Clone()
}

// Set assigns a declared property, checking its constraint first. Key
// properties may only change while the instance is NEW; reference
// columns must go through SetReference. The new value reaches storage at
// the next Update.
func (in *Instance) Set(prop string, value any) error {
	if err := in.typ.CheckValue(prop, value); err != nil {
		return err
	}
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	if in.st == stateDeleted {
		return fmt.Errorf("%s: %w", in.typ.Name(), types.ErrAlreadyDeleted)
	}
	if in.st != stateNew && in.isKeyColumn(prop) {
		return fmt.Errorf("%s.%s: key is immutable once inserted: %w",
			in.typ.Name(), prop, types.ErrAlreadyInserted)
	}
	in.values[prop] = value
	if in.st == stateNew && !in.typ.Key().Auto() {
		in.key = in.typ.KeyFromRow(in.values)
	}
	return nil
}

func (in *Instance) isKeyColumn(col string) bool {
	for _, kc := range in.typ.KeyColumns() {
		if kc == col {
			return true
		}
	}
	return false
}

// ReferenceKey returns the key currently stored in a reference's
// columns. The key is zero while the reference is unset.
func (in *Instance) ReferenceKey(refName string) (types.Key, error) {
	r, err := in.typ.Ref(refName)
	if err != nil {
		return types.Key{}, err
	}
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return in.referenceKeyLocked(r), nil
}

func (in *Instance) referenceKeyLocked(r *schema.Reference) types.Key {
	parts := make([]any, 0, len(r.Columns()))
	for _, c := range r.Columns() {
		v, ok := in.values[c.Name]
		if !ok || v == nil {
			return types.Key{}
		}
		parts = append(parts, v)
	}
	return types.NewKey(parts...)
}

// SetReference points the named reference at the target instance,
// recording the target's key components in the reference columns.
//
// For a real-time reference the graph edge is moved from the old target
// key to the new one, and listeners of this instance are then notified
// synchronously: OnReferenceRemoved for the previous target when it is
// still live in the cache, OnReferenceAdded for the new one. Ordinary
// references update the columns only.
func (in *Instance) SetReference(refName string, tgt *Instance) error {
	r, err := in.typ.Ref(refName)
	if err != nil {
		return err
	}
	if tgt == nil {
		return fmt.Errorf("%s.%s: nil reference target", in.typ.Name(), refName)
	}
	if tgt.typ != r.Target {
		return fmt.Errorf("%s.%s: reference target is %s, want %s",
			in.typ.Name(), refName, tgt.typ.Name(), r.Target.Name())
	}

	m := in.model
	m.mu.Lock()
	if in.st == stateDeleted {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", in.typ.Name(), types.ErrAlreadyDeleted)
	}
	if tgt.key.IsZero() {
		m.mu.Unlock()
		return fmt.Errorf("%s.%s: target %s: %w",
			in.typ.Name(), refName, r.Target.Name(), types.ErrUndeterminedKey)
	}

	oldKey := in.referenceKeyLocked(r)
	var oldTarget *Instance
	if r.RealTime && !oldKey.IsZero() {
		m.graph.remove(r.Target.Name(), oldKey, in, refName)
		if c, ok := m.caches[r.Target.Name()]; ok {
			oldTarget = c.peek(oldKey)
		}
	}

	tgtKey := tgt.key
	for i, c := range r.Columns() {
		in.values[c.Name] = tgtKey.Components()[i]
	}
	if in.st == stateNew && !in.typ.Key().Auto() {
		in.key = in.typ.KeyFromRow(in.values)
	}

	var listeners []Listener
	if r.RealTime {
		m.graph.add(r.Target.Name(), tgtKey, in, refName)
		listeners = in.listenersLocked()
	}
	m.mu.Unlock()

	for _, l := range listeners {
		if oldTarget != nil && l.ReferenceRemoved != nil {
			l.ReferenceRemoved(in, oldTarget)
		}
		if l.ReferenceAdded != nil {
			l.ReferenceAdded(in, tgt)
		}
	}
	return nil
}

// Referencing returns the live instances currently holding a real-time
// reference to this instance.
func (in *Instance) Referencing() []*Instance {
	m := in.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.key.IsZero() {
		return nil
	}
	return m.graph.to(in.typ.Name(), in.key)
}

// Listen registers a listener. It fails with ErrNotRealTime for entity
// types that do not support listeners. The registration does not keep
// the instance alive: it disappears with the instance.
func (in *Instance) Listen(l Listener) (ListenerToken, error) {
	if !in.typ.RealTime() {
		return "", fmt.Errorf("%s: %w", in.typ.Name(), types.ErrNotRealTime)
	}
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	if in.listeners == nil {
		in.listeners = make(map[ListenerToken]Listener)
	}
	tok := newListenerToken()
	in.listeners[tok] = l
	return tok, nil
}

// Unlisten removes a registration. Unknown tokens are ignored.
func (in *Instance) Unlisten(tok ListenerToken) {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	delete(in.listeners, tok)
}

// RemoveAllListeners drops every registration on the instance.
func (in *Instance) RemoveAllListeners() {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	in.listeners = nil
}

// listenersLocked snapshots the registrations for notification outside
// the lock.
func (in *Instance) listenersLocked() []Listener {
	if len(in.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(in.listeners))
	for _, l := range in.listeners {
		out = append(out, l)
	}
	return out
}

// SendUpdate notifies the instance's listeners without touching storage.
func (in *Instance) SendUpdate() {
	in.model.mu.Lock()
	listeners := in.listenersLocked()
	in.model.mu.Unlock()
	for _, l := range listeners {
		if l.Update != nil {
			l.Update(in)
		}
	}
}

// JSONValue projects the instance through its entity type's JSON hook:
// the per-type override when declared, otherwise every property not
// marked OmitJSON.
func (in *Instance) JSONValue() any {
	return in.typ.JSONValue(in.Values())
}

// MarshalJSON implements json.Marshaler using JSONValue.
func (in *Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.JSONValue())
}

func (in *Instance) String() string {
	in.model.mu.Lock()
	defer in.model.mu.Unlock()
	return fmt.Sprintf("%s<%s>", in.typ.Name(), in.key)
}
