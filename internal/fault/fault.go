// Package fault defines the structured error taxonomy shared by the workflow
// engine, the bay scheduler, and the HTTP surface.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	// NotFound: an item, order, worker, lift, or assignment does not exist.
	NotFound Kind = "not_found"
	// InvalidArgument: a missing id, bad duration, or bad time window.
	InvalidArgument Kind = "invalid_argument"
	// Conflict: the request is valid but the current state forbids it.
	Conflict Kind = "conflict"
	// Forbidden: the actor's role does not permit the operation.
	Forbidden Kind = "forbidden"
	// Unavailable: an optional schema element is missing; callers may retry
	// a reduced form of the operation.
	Unavailable Kind = "unavailable"
)

// Error is a kind-tagged error with optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return e.Message + ": " + e.wrapped.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// With attaches a structured detail and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap records an underlying cause and returns the same error.
func (e *Error) Wrap(err error) *Error {
	e.wrapped = err
	return e
}

// New creates a kind-tagged error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, format, args...)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return New(Forbidden, format, args...)
}

func Unavailablef(format string, args ...any) *Error {
	return New(Unavailable, format, args...)
}

// KindOf returns the Kind of err, or empty string for untagged errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
