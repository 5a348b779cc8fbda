// Package reconerr defines the error kinds surfaced by the reconciliation
// pipeline and their disposition, per the error handling design: fatal
// kinds fail the owning task, others degrade into recorded warnings.
package reconerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a reconciliation error.
type Kind string

const (
	SchemaInvalid      Kind = "SchemaInvalid"
	FileUnclassified   Kind = "FileUnclassified"
	ReadFailed         Kind = "ReadFailed"
	EmptyFile          Kind = "EmptyFile"
	KeyRoleUnresolved  Kind = "KeyRoleUnresolved"
	CleaningWarning    Kind = "CleaningWarning"
	DuplicateKey       Kind = "DuplicateKey"
	PredicateError     Kind = "PredicateError"
	TimedOut           Kind = "TimedOut"
	CallbackFailed     Kind = "CallbackFailed"
	TaskNotFound       Kind = "TaskNotFound"
	TaskIncomplete     Kind = "TaskIncomplete"
	UnsupportedType    Kind = "UnsupportedType"
	DecodeFailed       Kind = "DecodeFailed"
)

// fatalKinds fail the owning task as a whole rather than degrading to a warning.
var fatalKinds = map[Kind]bool{
	SchemaInvalid:     true,
	FileUnclassified:  true,
	ReadFailed:        true,
	EmptyFile:         true,
	KeyRoleUnresolved: true,
	TimedOut:          true,
}

// Error is the error type returned by every reconciliation component.
// It carries a Kind for programmatic dispatch plus a human detail string
// and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Context string // e.g. a file path, rule name, or candidate key
	Cause   error
}

func (e *Error) Error() string {
	if e.Context != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no wrapped cause.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap constructs an Error wrapping a lower-level cause.
func Wrap(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// IsFatal reports whether errors of this kind fail the owning task outright.
func IsFatal(kind Kind) bool {
	return fatalKinds[kind]
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, and
// reports ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
