// Package apperr defines the error taxonomy returned by the scheduling core.
//
// Every failure a caller is expected to react to is an *Error with a Kind.
// Callers branch with errors.Is against the sentinel of the kind:
//
//	if errors.Is(err, apperr.ErrSlotUnavailable) { ... }
//
// and reach the structured details with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorises a scheduling error.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidRequest         Kind = "invalid_request"
	KindSlotUnavailable        Kind = "slot_unavailable"
	KindForbidden              Kind = "forbidden"
	KindModificationNotAllowed Kind = "modification_not_allowed"
	KindDuplicateException     Kind = "duplicate_exception"
	KindInvalidTransition      Kind = "invalid_transition"
	KindServiceFailure         Kind = "service_failure"
)

// Sentinels for errors.Is. They carry no message; any *Error of the same
// kind matches them.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidRequest         = &Error{Kind: KindInvalidRequest}
	ErrSlotUnavailable        = &Error{Kind: KindSlotUnavailable}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrModificationNotAllowed = &Error{Kind: KindModificationNotAllowed}
	ErrDuplicateException     = &Error{Kind: KindDuplicateException}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrServiceFailure         = &Error{Kind: KindServiceFailure}
)

// Detail keys used by ModificationNotAllowed errors.
const (
	DetailRemainingBusinessDays = "remaining_business_days"
	DetailRemainingHours        = "remaining_hours"
)

// Error is a categorised scheduling error.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// DetailInt reads an integer detail from the first *Error in err's chain.
func DetailInt(err error, key string) (int, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Details == nil {
		return 0, false
	}
	v, ok := e.Details[key].(int)
	return v, ok
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func InvalidRequest(format string, args ...any) *Error {
	return newf(KindInvalidRequest, format, args...)
}

func SlotUnavailable(format string, args ...any) *Error {
	return newf(KindSlotUnavailable, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func DuplicateException(format string, args ...any) *Error {
	return newf(KindDuplicateException, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newf(KindInvalidTransition, format, args...)
}

// ModificationNotAllowed reports a rejected change together with how much
// lead time was left, under detailKey.
func ModificationNotAllowed(detailKey string, remaining int, message string) *Error {
	return &Error{
		Kind:    KindModificationNotAllowed,
		Message: message,
		Details: map[string]any{detailKey: remaining},
	}
}

// ServiceFailure wraps an unexpected persistence error.
func ServiceFailure(cause error, format string, args ...any) *Error {
	e := newf(KindServiceFailure, format, args...)
	e.Cause = cause
	return e
}
