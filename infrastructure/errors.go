package infrastructure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can map it to a status
// code without inspecting message text.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error, typically from the persistence layer.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
