// Package herrors defines the error taxonomy shared by every store, differ,
// and resolver package (spec.md §7). Callers match with errors.Is; no
// package outside herrors defines its own sentinel for these categories.
package herrors

import "errors"

// Sentinel errors forming the taxonomy of spec.md §7. Wrap with
// fmt.Errorf("...: %w", ErrX) to attach context; never discard the sentinel.
var (
	// ErrInvalidArgument covers an unknown id, a cross-language input pair,
	// or a path out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCapacityExceeded is returned when a bounded arena or id space is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrUnsupported is returned when a kind lacks a capability an operation
	// requires, or when two inputs come from different languages.
	ErrUnsupported = errors.New("unsupported")

	// ErrInternal marks an invariant violation that should never occur in a
	// correct build. Release builds return it instead of panicking.
	ErrInternal = errors.New("internal invariant violation")
)
