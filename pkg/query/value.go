package query

import (
	"strings"

	"github.com/google/uuid"
)

// Field defers a value to execution time. A Field renders as a named
// placeholder in the statement text; WithData fills it in per call. A
// statement whose values are all Fields is reusable: compile once,
// execute many times with different data.
type Field string

// placeholder returns the %(name)s form of the field.
func (f Field) placeholder() string { return "%(" + string(f) + ")s" }

// Unsafe wraps a caller-supplied value for immediate binding. The value
// still goes through the driver as a bound parameter, never by string
// concatenation, but it binds under a generated one-off name, so the
// resulting statement is tied to this value and not reusable the way a
// Field statement is. Use it to make per-call data explicit and
// auditable.
type Unsafe struct {
	key   string
	value any
}

// NewUnsafe wraps a value under a fresh generated parameter name.
func NewUnsafe(value any) Unsafe {
	return Unsafe{
		key:   "u" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		value: value,
	}
}

// Value returns the wrapped value.
func (u Unsafe) Value() any { return u.value }

func (u Unsafe) placeholder() string { return "%(" + u.key + ")s" }
