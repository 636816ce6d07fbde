package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/patchwire/internal/ir"
)

// ConsistencyError reports a change record that cannot belong to the
// container it was routed to: a list insert reaching a map observer, an
// index-keyed put reaching a map, a record for another object.
//
// Checked translators return it. During delivery it is raised with panic,
// because the engine's own data would be inconsistent.
type ConsistencyError struct {
	// Code identifies the violation.
	Code ConsistencyErrorCode

	// Message is a human-readable description.
	Message string

	// Obj is the container the observer watches.
	Obj ir.ObjID

	// Want is the container kind the observer expects.
	Want ir.ObjType

	// Got is the kind of the offending record.
	Got ir.PatchKind
}

// ConsistencyErrorCode categorizes consistency violations.
type ConsistencyErrorCode string

const (
	// ErrCodeKindMismatch indicates a record kind the container cannot hold.
	ErrCodeKindMismatch ConsistencyErrorCode = "KIND_MISMATCH"

	// ErrCodePropMismatch indicates a key where an index belongs, or the reverse.
	ErrCodePropMismatch ConsistencyErrorCode = "PROP_MISMATCH"

	// ErrCodeObjectMismatch indicates a record addressed to another object.
	ErrCodeObjectMismatch ConsistencyErrorCode = "OBJECT_MISMATCH"
)

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s (obj=%s)", e.Code, e.Message, e.Obj)
}

// IsConsistencyError returns true if err is or wraps a *ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

func kindMismatch(id ir.ObjID, want ir.ObjType, p ir.Patch) *ConsistencyError {
	return &ConsistencyError{
		Code:    ErrCodeKindMismatch,
		Message: fmt.Sprintf("%s observer received %s", want, ir.FormatPatch(p)),
		Obj:     id,
		Want:    want,
		Got:     p.Kind(),
	}
}

func propMismatch(id ir.ObjID, want ir.ObjType, p ir.Patch) *ConsistencyError {
	return &ConsistencyError{
		Code:    ErrCodePropMismatch,
		Message: fmt.Sprintf("%s observer received wrong property type in %s", want, ir.FormatPatch(p)),
		Obj:     id,
		Want:    want,
		Got:     p.Kind(),
	}
}

func objectMismatch(id ir.ObjID, want ir.ObjType, p ir.Patch) *ConsistencyError {
	return &ConsistencyError{
		Code:    ErrCodeObjectMismatch,
		Message: fmt.Sprintf("%s observer received record for %s", want, p.Obj()),
		Obj:     id,
		Want:    want,
		Got:     p.Kind(),
	}
}

// DiffError reports that the Source could not compute a difference.
// The engine's published heads are unchanged when it is returned.
type DiffError struct {
	Before ir.Heads
	After  ir.Heads
	Err    error
}

// Error implements the error interface.
func (e *DiffError) Error() string {
	return fmt.Sprintf("diff %s..%s: %v", e.Before, e.After, e.Err)
}

// Unwrap returns the Source's error.
func (e *DiffError) Unwrap() error {
	return e.Err
}

// IsDiffError returns true if err is or wraps a *DiffError.
func IsDiffError(err error) bool {
	var de *DiffError
	return errors.As(err, &de)
}
