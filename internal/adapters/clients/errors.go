// Package clients provides the instrumented HTTP client the remote quote
// sources share.
package clients

import "errors"

// Transport level failures. Source adapters translate them into domain
// errors before they reach the application.
var (
	// ErrCircuitOpen is returned without a request when the source's
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last network error once every
	// attempt failed without a response.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
