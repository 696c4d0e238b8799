package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownEventType   = errors.New("unknown event type")
	ErrEventNotReplayable = errors.New("event is not in NEW status")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// HTTPError reports a failed call to an upstream HTTP service
type HTTPError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s returned %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s returned %d", e.URL, e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status code is 429 or 5xx
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
