package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound                  Kind = "NOT_FOUND"
	KindAlreadyEnrolled           Kind = "ALREADY_ENROLLED"
	KindNotEnrolled               Kind = "NOT_ENROLLED"
	KindPaymentVerificationFailed Kind = "PAYMENT_VERIFICATION_FAILED"
	KindReconciliationMiss        Kind = "RECONCILIATION_MISS"
	KindInvalid                   Kind = "INVALID"
	KindForbidden                 Kind = "FORBIDDEN"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrNotFound                  = &Error{Kind: KindNotFound}
	ErrAlreadyEnrolled           = &Error{Kind: KindAlreadyEnrolled}
	ErrNotEnrolled               = &Error{Kind: KindNotEnrolled}
	ErrPaymentVerificationFailed = &Error{Kind: KindPaymentVerificationFailed}
	ErrReconciliationMiss        = &Error{Kind: KindReconciliationMiss}
	ErrInvalid                   = &Error{Kind: KindInvalid}
	ErrForbidden                 = &Error{Kind: KindForbidden}
)

// Error is a typed failure returned by the services. Redirect is a hint for the
// presentation layer about where to send the user next.
type Error struct {
	Kind     Kind
	Message  string
	Redirect string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// WithRedirect returns a copy of e carrying a redirect hint.
func (e *Error) WithRedirect(path string) *Error {
	cp := *e
	cp.Redirect = path
	return &cp
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

// As extracts the *Error from err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
