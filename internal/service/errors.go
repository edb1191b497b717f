// Package service holds the marketplace's use cases: identity and access,
// accounts, catalog, cart and checkout, orders and messaging.  Every
// operation fails with an *Error whose Kind is stable and machine checkable.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindInvalidArgument  Kind = "invalid_argument"
	KindConflict         Kind = "conflict"
	KindInvalidOperation Kind = "invalid_operation"
	KindEmptyCart        Kind = "empty_cart"
	KindInternal         Kind = "internal"
)

// Error is a classified failure with a message safe to show to clients.
// Err keeps the underlying cause for logging and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func unauthenticated(msg string) *Error { return newErr(KindUnauthenticated, msg) }
func forbidden(msg string) *Error       { return newErr(KindForbidden, msg) }
func notFound(msg string) *Error        { return newErr(KindNotFound, msg) }
func invalidArg(msg string) *Error      { return newErr(KindInvalidArgument, msg) }
func conflict(msg string) *Error        { return newErr(KindConflict, msg) }
func invalidOp(msg string) *Error       { return newErr(KindInvalidOperation, msg) }

// internal wraps an unexpected storage or runtime fault.
func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
