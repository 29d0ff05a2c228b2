// Package apperrors is the error taxonomy shared by the backend and the client core.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the caller must react to them.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuthorization Kind = "AUTHORIZATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindTiming        Kind = "TIMING"
	KindConflict      Kind = "CONFLICT"
	KindTransport     Kind = "TRANSPORT"
	KindNetwork       Kind = "NETWORK"
	KindInternal      Kind = "INTERNAL"
)

// Code is the machine readable reason carried over the wire.
type Code string

const (
	CodeInvalidRequest          Code = "INVALID_REQUEST"
	CodeForbidden               Code = "FORBIDDEN"
	CodeNotFound                Code = "NOT_FOUND"
	CodeTooEarly                Code = "TOO_EARLY"
	CodeWaitTimeout             Code = "WAIT_TIMEOUT"
	CodeAlreadyTerminal         Code = "ALREADY_TERMINAL"
	CodeAlreadyStarted          Code = "ALREADY_STARTED"
	CodeAlreadyDecided          Code = "ALREADY_DECIDED"
	CodeTransportIssuanceFailed Code = "TRANSPORT_ISSUANCE_FAILED"
	CodeBackendUnavailable      Code = "BACKEND_UNAVAILABLE"
	CodeInternal                Code = "INTERNAL"
)

type Error struct {
	Kind   Kind
	Code   Code
	Reason string
	// MinutesRemaining is set for TOO_EARLY: minutes until the scheduled start.
	MinutesRemaining int
	Err              error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, code Code, reason string) *Error {
	return &Error{Kind: kind, Code: code, Reason: reason}
}

func Wrap(kind Kind, code Code, reason string, err error) *Error {
	return &Error{Kind: kind, Code: code, Reason: reason, Err: err}
}

func Validation(reason string) *Error {
	return New(KindValidation, CodeInvalidRequest, reason)
}

func Forbidden(reason string) *Error {
	return New(KindAuthorization, CodeForbidden, reason)
}

func NotFound(reason string) *Error {
	return New(KindNotFound, CodeNotFound, reason)
}

func TooEarly(minutesRemaining int) *Error {
	return &Error{
		Kind:             KindTiming,
		Code:             CodeTooEarly,
		Reason:           "too early",
		MinutesRemaining: minutesRemaining,
	}
}

// WaitTimeout is raised client side when the peer did not show up in time.
func WaitTimeout() *Error {
	return New(KindTiming, CodeWaitTimeout, "waited too long for the other party")
}

func AlreadyTerminal(reason string) *Error {
	return New(KindConflict, CodeAlreadyTerminal, reason)
}

// AlreadyStarted refuses to cancel a meeting that both parties already joined.
func AlreadyStarted() *Error {
	return New(KindConflict, CodeAlreadyStarted, "meeting already started")
}

func AlreadyDecided() *Error {
	return New(KindConflict, CodeAlreadyDecided, "request already decided")
}

func TransportIssuance(err error) *Error {
	return Wrap(KindTransport, CodeTransportIssuanceFailed, "transport credential issuance failed", err)
}

func Network(err error) *Error {
	return Wrap(KindNetwork, CodeBackendUnavailable, "backend unreachable", err)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, CodeInternal, "internal error", err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies err; anything outside the taxonomy is INTERNAL.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to the status the backend answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTiming:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindTransport:
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
