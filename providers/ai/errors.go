package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned by a provider when the backend answered without
// any choice to read.
var ErrEmptyResponse = errors.New("ai: empty response from provider")

// ProviderError carries the HTTP status of a failed backend call so that
// middleware can decide whether the call is worth retrying.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary reports whether the status code denotes a transient condition
// (rate limiting or a server-side failure).
func (e *ProviderError) Temporary() bool {
	switch e.StatusCode {
	case 408, 409, 429, 500, 502, 503, 504, 529:
		return true
	}
	return false
}
