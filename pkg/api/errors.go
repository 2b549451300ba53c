package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the consumer contract can report.
//
// The kinds are transport agnostic: callers embedding flowgate into an HTTP
// or gRPC surface decide how each kind maps onto their protocol.
type ErrorKind string

const (
	// ErrorBadRequest marks malformed caller input, such as an unknown start
	// callback type, a missing end event id, or an empty task result.
	ErrorBadRequest ErrorKind = "bad_request"

	// ErrorForbidden marks scopes in which the identity's accessible-lane set
	// is empty.
	ErrorForbidden ErrorKind = "forbidden"

	// ErrorNotFound marks unknown process models, correlations, events and
	// tasks. A task that exists but is hidden from the caller reports this
	// kind too, so callers cannot probe for invisible work.
	ErrorNotFound ErrorKind = "not_found"

	// ErrorUnprocessableEntity marks engine entities that cannot be projected
	// into the consumer contract, such as a user task without form fields.
	ErrorUnprocessableEntity ErrorKind = "unprocessable_entity"

	// ErrorInternal marks engine-side failures. Messages of this kind stay
	// generic; detail goes to the configured logger instead of the caller.
	ErrorInternal ErrorKind = "internal_server_error"
)

// Error is the error type returned by every Client operation.
//
// Wrapped causes are reachable through errors.Unwrap for logging, but the
// Message alone is what a caller-facing surface should expose.
type Error struct {
	Kind    ErrorKind
	Message string

	cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an *Error of the given kind that keeps cause on the
// unwrap chain. The message shown to callers is format/args only.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf returns the ErrorKind carried by err, or the empty string when err
// has no *Error on its chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsBadRequest reports whether err carries ErrorBadRequest.
func IsBadRequest(err error) bool { return KindOf(err) == ErrorBadRequest }

// IsForbidden reports whether err carries ErrorForbidden.
func IsForbidden(err error) bool { return KindOf(err) == ErrorForbidden }

// IsNotFound reports whether err carries ErrorNotFound.
func IsNotFound(err error) bool { return KindOf(err) == ErrorNotFound }

// IsUnprocessableEntity reports whether err carries ErrorUnprocessableEntity.
func IsUnprocessableEntity(err error) bool { return KindOf(err) == ErrorUnprocessableEntity }

// IsInternal reports whether err carries ErrorInternal.
func IsInternal(err error) bool { return KindOf(err) == ErrorInternal }
