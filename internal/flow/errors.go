package flow

import (
	"errors"
	"net/http"
)

// Failure kinds. Every error returned by a Flow matches exactly one of them
// with errors.Is.
var (
	// ErrMissingCode: the callback carried no authorization code
	ErrMissingCode = errors.New("missing authorization code")
	// ErrStateMismatch: the anti-forgery state did not verify
	ErrStateMismatch = errors.New("state verification failed")
	// ErrTokenExchange: the code could not be exchanged for an access token
	ErrTokenExchange = errors.New("token exchange failed")
	// ErrResourceFetch: a starred repositories page could not be fetched
	ErrResourceFetch = errors.New("resource fetch failed")

	// ErrFlowFinished is returned when a finished flow is completed again
	ErrFlowFinished = errors.New("flow already finished")
)

// Error is a terminal flow failure.
type Error struct {
	Kind  error
	State State // state the flow was in when it failed
	Err   error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// HTTPStatus maps a flow error to the status returned to the browser.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingCode), errors.Is(err, ErrStateMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenExchange), errors.Is(err, ErrResourceFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode is the machine readable code used in error bodies.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingCode):
		return "missing_code"
	case errors.Is(err, ErrStateMismatch):
		return "invalid_state"
	case errors.Is(err, ErrTokenExchange):
		return "token_exchange_failed"
	case errors.Is(err, ErrResourceFetch):
		return "resource_fetch_failed"
	default:
		return "server_error"
	}
}

// UserMessage is the human readable text shown to the browser. Upstream
// details stay in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCode):
		return "Authorization failed: GitHub did not return an authorization code."
	case errors.Is(err, ErrStateMismatch):
		return "Authorization failed: the login request could not be verified. Please log in again."
	case errors.Is(err, ErrTokenExchange):
		return "Access token retrieving failed."
	case errors.Is(err, ErrResourceFetch):
		return "Failed to retrieve starred repositories information."
	default:
		return "Internal server error."
	}
}
