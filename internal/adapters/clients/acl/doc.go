// Package acl translates remote quote APIs into domain types.
//
// Each adapter keeps the remote DTOs unexported, maps HTTP failures to the
// domain error sentinels with [MapHTTPError] and hands the application
// [domain.SourcedQuote] values only:
//
//   - 404 Not Found → [domain.ErrNotFound]
//   - 409 Conflict → [domain.ErrConflict]
//   - 401/403 → [domain.ErrForbidden]
//   - 429, 5xx, open circuit, exhausted retries → [domain.ErrUnavailable]
//   - any other 4xx → [domain.ErrValidation]
//
// [TranslateQuotes] skips remote items that cannot become a quote. The
// quotable source fails a response with no usable item at all.
package acl
