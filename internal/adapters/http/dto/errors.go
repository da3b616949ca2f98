// Package dto holds the request and response shapes of the qpq HTTP API
// together with binding, validation and error envelope helpers.
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the envelope of every non-2xx API response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	// Code is one of the ErrorCode constants.
	Code string `json:"code"`

	Message string `json:"message"`

	// Details maps a field, or "service" and "reason" for unavailable
	// sources, to a message.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes carried in ErrorDetail.Code.
const (
	// ErrorCodeNotFound is returned for a missing collection or quote.
	ErrorCodeNotFound = "NOT_FOUND"

	// ErrorCodeConflict is returned when a collection name is taken.
	ErrorCodeConflict = "CONFLICT"

	ErrorCodeValidation = "VALIDATION_ERROR"

	ErrorCodeForbidden = "FORBIDDEN"

	// ErrorCodeUnauthorized is returned to a write without a subject when
	// auth is enabled.
	ErrorCodeUnauthorized = "UNAUTHORIZED"

	// ErrorCodeUnavailable is returned when every quote source of an
	// import failed.
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"

	ErrorCodeInternal = "INTERNAL_ERROR"

	ErrorCodeTimeout = "TIMEOUT"

	// ErrorCodeBadRequest is returned for a body or query that does not bind.
	ErrorCodeBadRequest = "BAD_REQUEST"

	// ErrorCodeRouteNotFound is returned for a path no route matches.
	ErrorCodeRouteNotFound = "ROUTE_NOT_FOUND"

	// ErrorCodeMethodNotAllowed is returned for a known path with the
	// wrong method.
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

	// ErrorCodePayloadTooLarge is returned for a body over
	// server.max_request_size.
	ErrorCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

var statusByCode = map[string]int{
	ErrorCodeNotFound:         http.StatusNotFound,
	ErrorCodeRouteNotFound:    http.StatusNotFound,
	ErrorCodeConflict:         http.StatusConflict,
	ErrorCodeValidation:       http.StatusBadRequest,
	ErrorCodeBadRequest:       http.StatusBadRequest,
	ErrorCodeForbidden:        http.StatusForbidden,
	ErrorCodeUnauthorized:     http.StatusUnauthorized,
	ErrorCodeUnavailable:      http.StatusServiceUnavailable,
	ErrorCodeTimeout:          http.StatusGatewayTimeout,
	ErrorCodeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrorCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
}

// NewErrorResponse creates an envelope without details.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an envelope with per-field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID sets the trace id and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode returns the status for an error code, 500 when the
// code is unknown.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NoRoute answers unmatched paths with the error envelope instead of gin's
// plain text 404.
func NoRoute(c *gin.Context) {
	Abort(c, ErrorCodeRouteNotFound, "no route for "+c.Request.URL.Path)
}

// NoMethod answers a matched path with an unsupported method.
func NoMethod(c *gin.Context) {
	Abort(c, ErrorCodeMethodNotAllowed, c.Request.Method+" is not supported on "+c.Request.URL.Path)
}
