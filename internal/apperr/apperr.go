// Package apperr defines the error taxonomy shared by the booking, room and
// prescription services. Callers branch on the Kind (or on the sentinel value
// itself with errors.Is) instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal"
)

// Error is a typed failure. Code is a stable machine readable slug and
// Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same Code, so a sentinel still matches after
// WithMessage has specialized its text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

// Withf is WithMessage with fmt.Sprintf formatting.
func (e *Error) Withf(format string, args ...any) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
