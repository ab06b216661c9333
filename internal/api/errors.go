// Package api provides typed clients for the remote CashBet backend.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call so callers can handle outcomes
// exhaustively instead of matching on status codes or message text.
type Kind string

// Failure kinds, in rough order of how the UI reacts to them.
const (
	KindUnauthorized Kind = "unauthorized" // missing/expired/rejected credential
	KindForbidden    Kind = "forbidden"    // authenticated but role check failed
	KindValidation   Kind = "validation"   // client-detected bad input, call never issued
	KindConflict     Kind = "conflict"     // duplicate username or similar
	KindNotFound     Kind = "not_found"
	KindNetwork      Kind = "network" // transport failure or unreachable server
	KindUnknown      Kind = "unknown" // server error without a structured message
)

// Error is the uniform failure result of every backend call.
// Status is the HTTP status the server answered with, 0 when the request
// never completed.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// errf builds an *Error with a formatted message.
func errf(kind Kind, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...)}
}

// fromStatus maps an HTTP error status to its failure kind.
func fromStatus(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	kind := KindUnknown
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// KindOf extracts the failure kind from an error chain.
// Returns KindUnknown for errors that did not originate in this package.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err is a credential failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}
