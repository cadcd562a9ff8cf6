package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a donation flow failure for the handler boundary.
type ErrorKind string

const (
	// KindConfig covers missing or incomplete settings, unknown forms,
	// inheritance cycles and unmatched credential bundles.
	KindConfig ErrorKind = "config"

	// KindValidation covers invalid donor input, including the honey-pot.
	KindValidation ErrorKind = "validation"

	// KindDeclined means the provider rejected the charge or mandate.
	KindDeclined ErrorKind = "declined"

	// KindReplay means the confirmation token did not match.
	KindReplay ErrorKind = "replay"

	// KindUnavailable covers network errors, timeouts and non-2xx
	// responses from a provider.
	KindUnavailable ErrorKind = "unavailable"
)

// Error is the typed error returned by resolvers, adapters and the service.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed error without a cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a typed error wrapping a cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnavailable for untyped errors
// so unexpected failures never leak internal detail to the donor.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// MessageOf returns the donor-safe message of err. Only validation and
// decline messages are shown verbatim; everything else is generic.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation:
			return e.Message
		case KindDeclined:
			return "Your donation could not be processed: " + e.Message
		}
	}
	return "Your donation could not be processed"
}
