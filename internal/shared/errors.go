package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can branch on the category
// instead of inspecting vendor-specific codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindDuplicateKey
	KindStore
)

// Error carries a Kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError attaches a Kind to an underlying error.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool { return KindOf(err) == KindDuplicateKey }

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("not found")
