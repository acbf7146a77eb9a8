package types

import (
	"errors"
	"fmt"
)

// Query and lookup errors.
var (
	ErrNotFound        = errors.New("no matching row")
	ErrMultipleResults = errors.New("more than one matching row")
)

// Instance state machine errors. These are detected locally and never
// reach storage.
var (
	ErrAlreadyDeleted  = errors.New("instance already deleted")
	ErrUndeterminedKey = errors.New("key not determined yet")
	ErrAlreadyInserted = errors.New("instance already inserted")
	ErrConstraint      = errors.New("constraint failed")
)

// Storage-reported errors. Surfaced unmodified; the engine never retries.
var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrStorage      = errors.New("storage error")
)

// Registration and declaration errors.
var (
	ErrUnknownProperty  = errors.New("unknown property")
	ErrUnknownReference = errors.New("unknown reference")
	ErrNotRegistered    = errors.New("entity type not registered")
	ErrNotRealTime      = errors.New("entity type does not support listeners")
	ErrMissingParam     = errors.New("missing statement parameter")
)

// Config validation errors.
var (
	ErrDriverEmpty   = errors.New("driver must not be empty")
	ErrDriverUnknown = errors.New("unknown driver")
	ErrDSNEmpty      = errors.New("dsn must not be empty")
)

// ConstraintError reports a failed property or object-wide constraint.
// Property is empty when the object-wide constraint failed.
type ConstraintError struct {
	Entity   string
	Property string
}

func (e *ConstraintError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("object-wide constraint of %s failed", e.Entity)
	}
	return fmt.Sprintf("constraint of property %s.%s failed", e.Entity, e.Property)
}

// Unwrap makes ConstraintError match ErrConstraint under errors.Is.
func (e *ConstraintError) Unwrap() error { return ErrConstraint }

// StorageError wraps a driver-level failure together with the statement
// that caused it.
type StorageError struct {
	Stmt string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error while executing %q: %v", e.Stmt, e.Err)
}

// Unwrap makes StorageError match both ErrStorage and the driver error.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
