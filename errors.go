package goWallet

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession is returned when the identity provider holds no local user record.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired is returned when the identity provider refuses to validate or refresh the session.
	ErrSessionExpired = errors.New("session expired")
	// ErrAuthRequired is returned by every backend call that could not be authorized. The session has been ended.
	ErrAuthRequired = errors.New("authentication required")
	// ErrPollFailed marks a status poll that could not produce a usable status.
	ErrPollFailed = errors.New("status poll failed")
	// ErrClientNotReady is returned when a Client is used before Build or after Close.
	ErrClientNotReady = errors.New("client not ready")
	// ErrNoAccountReference is returned when no account id is loaded or persisted.
	ErrNoAccountReference = errors.New("no account reference")
	// ErrTrackerClosed is returned by StartTracking after Close.
	ErrTrackerClosed = errors.New("tracker closed")
	// ErrAlreadyTracked is returned by StartTracking when (kind, key) is being polled.
	ErrAlreadyTracked = errors.New("already tracked")
	// ErrInvalidAmount is returned for non-positive or non-finite amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidArgument is returned for empty identifiers and similar caller mistakes.
	ErrInvalidArgument = errors.New("invalid argument")
)

// HTTPError is a business-level failure reported by the backend. Message is
// the backend's "message" field when present.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}
