package acl

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// apiError is the error body of a quote API. quotable answers with
// statusCode and statusMessage; other APIs send a flat message or a nested
// error object with field details.
type apiError struct {
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"message"`
	Error         struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (e apiError) message() string {
	for _, m := range []string{e.Error.Message, e.Message, e.StatusMessage} {
		if m != "" {
			return m
		}
	}

	return ""
}

// field returns the first rejected field in name order.
func (e apiError) field() (name, message string, ok bool) {
	if len(e.Error.Details) == 0 {
		return "", "", false
	}

	name = slices.Sorted(maps.Keys(e.Error.Details))[0]

	return name, e.Error.Details[name], true
}

// readAPIError decodes the start of an error body. Bodies that are not
// JSON yield the zero value.
func readAPIError(body io.Reader) apiError {
	var e apiError
	if body == nil {
		return e
	}

	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&e); err != nil {
		return apiError{}
	}

	return e
}

// MapHTTPError maps a failed source request to a domain error. resp may be
// nil when clientErr is set; path names what was missing on a 404.
func MapHTTPError(resp *http.Response, clientErr error, source, operation, path string) error {
	switch {
	case clientErr != nil:
		return mapClientError(clientErr, source, operation)
	case resp == nil:
		return domain.NewUnavailableError(source, "no response received")
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	}

	return mapStatus(resp.StatusCode, readAPIError(resp.Body), source, operation, path)
}

func mapClientError(err error, source, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(source, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(source, "max retries exceeded during "+operation)
	default:
		return domain.NewUnavailableError(source, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatus(status int, body apiError, source, operation, path string) error {
	message := body.message()
	if message == "" {
		message = fmt.Sprintf("%s: %s", operation, strings.ToLower(http.StatusText(status)))
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(source, path)
	case status == http.StatusConflict:
		return domain.NewConflictError(source, message)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(source, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(source, message)
	}

	if field, msg, ok := body.field(); ok {
		return domain.NewValidationError(field, msg)
	}

	return domain.NewValidationError("", message)
}
