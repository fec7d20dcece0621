// Package clients holds the HTTP client that reaches the remote mirror.
package clients

import "errors"

// Failures of the client itself. Adapters translate them into domain errors.
var (
	// ErrCircuitOpen means the breaker refused the request without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
