// Package gapi executes authenticated requests against the Google Drive
// and Sheets APIs. The client attaches a bearer token from a credential
// source, and on a single 401 forces a refresh and reissues the request
// exactly once before surfacing a typed failure. Retry policy beyond that
// single reissue belongs to the caller.
package gapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status classification.
// Use errors.Is(err, gapi.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("gapi: bad request")
	ErrUnauthorized = errors.New("gapi: unauthorized")
	ErrForbidden    = errors.New("gapi: forbidden")
	ErrNotFound     = errors.New("gapi: not found")
	ErrServerError  = errors.New("gapi: server error")
)

// APIError is a remote-API rejection after at most one refresh-reissue.
// It wraps a sentinel for errors.Is and carries the status plus the
// message decoded from the API's {error:{message}} envelope.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gapi: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Guidance returns a human-readable diagnosis for the failure, suitable
// for surfacing to the end user alongside the raw message.
func (e *APIError) Guidance() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "credentials are likely stale or revoked; re-authorize if the problem persists"
	case http.StatusForbidden:
		return "permission denied: the granted scopes do not cover this resource"
	case http.StatusNotFound:
		return "the requested resource does not exist or is not accessible"
	case http.StatusBadRequest:
		return "the request was malformed: " + e.Message
	default:
		return e.Message
	}
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
