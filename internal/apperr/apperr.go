// Package apperr defines the error taxonomy surfaced by the HTTP API and
// renders errors as JSON at the handler boundary.
package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies an error for status mapping.
type Kind string

const (
	KindMissingAuthorizationCode  Kind = "missing_authorization_code"
	KindIncompleteProviderProfile Kind = "incomplete_provider_profile"
	KindUnauthenticated           Kind = "unauthenticated"
	KindIntegrationNotConnected   Kind = "integration_not_connected"
	KindUpstreamFailure           Kind = "upstream_failure"
	KindUpstreamTimeout           Kind = "upstream_timeout"
	KindBadRequest                Kind = "bad_request"
	KindNotFound                  Kind = "not_found"
	KindConflict                  Kind = "conflict"
	KindInternal                  Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindMissingAuthorizationCode:  http.StatusBadRequest,
	KindIncompleteProviderProfile: http.StatusInternalServerError,
	KindUnauthenticated:           http.StatusUnauthorized,
	KindIntegrationNotConnected:   http.StatusBadRequest,
	KindUpstreamFailure:           http.StatusInternalServerError,
	KindUpstreamTimeout:           http.StatusGatewayTimeout,
	KindBadRequest:                http.StatusBadRequest,
	KindNotFound:                  http.StatusNotFound,
	KindConflict:                  http.StatusConflict,
	KindInternal:                  http.StatusInternalServerError,
}

// Error is an application error with a user facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable reports whether the client may retry the same request.
func (e *Error) Retryable() bool {
	return e.Kind == KindUpstreamTimeout
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	ErrMissingAuthorizationCode = New(KindMissingAuthorizationCode, "Code not found")
	ErrUnauthenticated          = New(KindUnauthenticated, "User not authenticated")
	ErrNotConnected             = New(KindIntegrationNotConnected, "Google account not connected for this user")
)

// IncompleteProfile reports the profile fields the provider did not return.
func IncompleteProfile(missing []string) *Error {
	return New(KindIncompleteProviderProfile,
		fmt.Sprintf("Failed to retrieve complete user information from Google (missing %v)", missing))
}

// Upstream classifies a failed downstream call. Timeouts become
// UpstreamTimeout, anything else UpstreamFailure with the given message.
func Upstream(message string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if IsTimeout(err) {
		return Wrap(KindUpstreamTimeout, message+" (timed out)", err)
	}
	return Wrap(KindUpstreamFailure, message, err)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type body struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Write renders err as a JSON error body. Foreign errors become a 500 with
// the supplied fallback message.
func Write(w http.ResponseWriter, err error, fallback string) int {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = Wrap(KindInternal, fallback, err)
	}
	b := body{Message: ae.Message, Retryable: ae.Retryable()}
	if ae.Err != nil {
		b.Error = ae.Err.Error()
	}
	status := ae.Status()
	WriteJSON(w, status, b)
	return status
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
