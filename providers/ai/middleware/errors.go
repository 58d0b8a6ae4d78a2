package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed. It wraps the last provider error, so both errors.Is(err,
// ErrRetryExhausted) and errors.As on the provider error work.
var ErrRetryExhausted = errors.New("agentloop: all retry attempts exhausted")
