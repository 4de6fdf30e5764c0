// Package errs defines the error kinds surfaced by the catalog, the explorer
// session and the tool server. Callers branch on Kind instead of matching
// driver error text.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidIdentifier
	KindInvalidArgument
	KindNotFound
	KindConnectionFailure
	KindSecurityRejected
	KindMetadataUnavailable
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "invalid identifier"
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindConnectionFailure:
		return "connection failure"
	case KindSecurityRejected:
		return "rejected"
	case KindMetadataUnavailable:
		return "metadata unavailable"
	case KindCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an error without a cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and operation context to cause. A context
// cancellation is always reported as KindCancelled regardless of kind.
func Wrap(kind Kind, op string, cause error) *Error {
	if errors.Is(cause, context.Canceled) {
		kind = KindCancelled
	}
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain. Bare context
// cancellations map to KindCancelled; anything else is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsCancelled reports whether err represents a superseded operation.
func IsCancelled(err error) bool {
	return Is(err, KindCancelled)
}

// IsNotFound reports whether err is a lookup that found nothing.
func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}

// IsValidation reports whether err was raised before any statement was sent.
func IsValidation(err error) bool {
	k := KindOf(err)
	return err != nil && (k == KindInvalidIdentifier || k == KindInvalidArgument || k == KindSecurityRejected)
}
