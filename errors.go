package patchgraph

import (
	"errors"
	"fmt"
)

// Error kinds categorize failures across the module.
const (
	// KindNotFound represents lookups of blocks, edges, buses, or types
	// that do not exist.
	KindNotFound = "not_found"

	// KindValidation represents semantic rule violations (type
	// compatibility, bus contracts, malformed definitions).
	KindValidation = "validation"

	// KindConflict represents operations rejected because of existing
	// state (duplicate bus names, duplicate registrations).
	KindConflict = "conflict"

	// KindDocument represents malformed or unsupported persisted patch
	// documents.
	KindDocument = "document"

	// KindInternal represents invariant violations inside the core.
	KindInternal = "internal"
)

// Error is the structured error type shared across packages. It wraps an
// underlying error with the operation that failed and a category, and
// supports errors.Is/errors.As through Unwrap.
//
// Example:
//
//	err := &patchgraph.Error{
//		Op:   "Store.Connect",
//		Kind: patchgraph.KindNotFound,
//		Err:  patch.ErrBlockNotFound,
//	}
type Error struct {
	// Op is the operation that failed (e.g. "Store.AddBlock").
	Op string

	// Kind is one of the Kind* constants.
	Kind string

	// Err is the underlying cause.
	Err error

	// Context carries optional debugging detail (entity IDs, names).
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("patchgraph: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("patchgraph: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("patchgraph: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches either the underlying error or another *Error with the same
// Kind (and Op, when the target sets one).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}
	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the given context merged in.
func (e *Error) WithContext(ctx map[string]any) *Error {
	clone := *e
	if clone.Context == nil {
		clone.Context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		clone.Context[k] = v
	}
	return &clone
}

// NewNotFoundError creates an Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// NewValidationError creates an Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewConflictError creates an Error with KindConflict.
func NewConflictError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConflict, Err: err}
}

// NewDocumentError creates an Error with KindDocument.
func NewDocumentError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindDocument, Err: err}
}

// NewInternalError creates an Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}
