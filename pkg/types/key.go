package types

import (
	"fmt"
	"strings"
)

// Key identifies one persisted record of an entity type: a single scalar
// or an ordered tuple of scalars for composite keys. Two keys are equal
// iff they are component-wise equal.
//
// The zero Key is "undetermined": an instance whose key has not been
// assigned by the database yet.
type Key struct {
	parts []any
}

// NewKey builds a Key from its components, in key-column order.
func NewKey(components ...any) Key {
	if len(components) == 0 {
		return Key{}
	}
	parts := make([]any, len(components))
	copy(parts, components)
	return Key{parts: parts}
}

// IsZero reports whether the key is undetermined.
func (k Key) IsZero() bool { return len(k.parts) == 0 }

// Len returns the number of key components.
func (k Key) Len() int { return len(k.parts) }

// Components returns the key components in order. The caller must not
// modify the returned slice.
func (k Key) Components() []any { return k.parts }

// Single returns the sole component of a single-column key.
// It panics for composite or undetermined keys.
func (k Key) Single() any {
	if len(k.parts) != 1 {
		panic(fmt.Sprintf("types: Single called on key with %d components", len(k.parts)))
	}
	return k.parts[0]
}

// Equal reports component-wise equality.
func (k Key) Equal(o Key) bool {
	if len(k.parts) != len(o.parts) {
		return false
	}
	for i := range k.parts {
		if k.parts[i] != o.parts[i] {
			return false
		}
	}
	return true
}

// Canonical folds the key into a single comparable value usable as a map
// key. Single-component keys canonicalize to the component itself;
// composite keys fold right into nested pairs.
func (k Key) Canonical() any {
	switch len(k.parts) {
	case 0:
		return nil
	case 1:
		return k.parts[0]
	}
	folded := k.parts[len(k.parts)-1]
	for i := len(k.parts) - 2; i >= 0; i-- {
		folded = [2]any{k.parts[i], folded}
	}
	return folded
}

func (k Key) String() string {
	if k.IsZero() {
		return "<undetermined>"
	}
	if len(k.parts) == 1 {
		return fmt.Sprint(k.parts[0])
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range k.parts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, p)
	}
	b.WriteByte(')')
	return b.String()
}
