package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
)

// Error kinds. Every error returned by a service matches exactly one of them
// with errors.Is.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstream            = errors.New("upstream failure")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrPartialRegistration = errors.New("partial registration")
)

// Error is a classified failure with a message safe to show the caller.
type Error struct {
	Kind       error
	Message    string
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func invalidInput(violations []string) *Error {
	return &Error{
		Kind:       ErrInvalidInput,
		Message:    strings.Join(violations, "; "),
		Violations: violations,
	}
}

// upstream wraps a store or provider failure with the operation name.
// Timeouts and an unreachable identity provider are reported as unavailable.
func upstream(op string, err error) *Error {
	kind := ErrUpstream
	if errors.Is(err, identity.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		kind = ErrServiceUnavailable
	}
	return &Error{Kind: kind, Message: "failed to " + op, Err: err}
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "internal server error"
}

// ViolationsOf returns the validation failures carried by err, if any.
func ViolationsOf(err error) []string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Violations
	}
	return nil
}
