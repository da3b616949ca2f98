// Package domain holds the quote library model: items, quotes, collections,
// lists and the manager that owns them, together with the event emitters
// that report their changes.
//
// The model reports missing collections and quotes through (value, ok)
// returns. The typed errors in this file are what the application layer
// hands to its callers.
package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates a missing collection or quote.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a taken collection name or an inconsistent
	// library.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates input the library cannot accept.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a remote quote source is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrDuplicateAggregation is raised (as a panic) when a list is asked to
	// forward a child event that is already being forwarded.
	ErrDuplicateAggregation = errors.New("duplicate item event aggregation")
)

// Entities named by NotFoundError and ConflictError.
const (
	EntityCollection = "collection"
	EntityQuote      = "quote"
)

// NotFoundError names what was missing. In is the collection a quote was
// looked up in.
type NotFoundError struct {
	Entity string
	ID     string
	In     string
}

func (e *NotFoundError) Error() string {
	msg := e.Entity + " not found"
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	}

	if e.In != "" {
		msg += fmt.Sprintf(" in collection %q", e.In)
	}

	return msg
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error. Source adapters use it with
// the source name as entity.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// CollectionNotFound reports a missing collection.
func CollectionNotFound(name string) error {
	return &NotFoundError{Entity: EntityCollection, ID: strconv.Quote(name)}
}

// QuoteNotFound reports a quote id missing from collection.
func QuoteNotFound(collection string, id int) error {
	return &NotFoundError{Entity: EntityQuote, ID: strconv.Itoa(id), In: collection}
}

// EmptyCollection reports a random pick from a collection without quotes.
func EmptyCollection(collection string) error {
	return &NotFoundError{Entity: EntityQuote, In: collection}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

func (e *ConflictError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s conflict: %s (%s)", e.Entity, e.Reason, e.Details)
	}

	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// NewConflictErrorWithDetails creates a conflict error with additional details.
func NewConflictErrorWithDetails(entity, reason, details string) error {
	return &ConflictError{Entity: entity, Reason: reason, Details: details}
}

// CollectionExists reports a taken collection name.
func CollectionExists(name string) error {
	return &ConflictError{Entity: EntityCollection, Reason: strconv.Quote(name) + " already exists"}
}

// newDuplicateAggregationError is the value a List panics with when an
// aggregation for childEvent is registered twice.
func newDuplicateAggregationError(childEvent string) error {
	return fmt.Errorf("%w for %q: %w", ErrDuplicateAggregation, childEvent, ErrConflict)
}

// ValidationError names the rejected field. Value, when set, is echoed in
// API error details.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError is returned when a source refuses qpq's credentials.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError names the quote source that could not be reached.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsDuplicateAggregation checks if an error (or recovered panic value) reports
// a duplicate aggregation.
func IsDuplicateAggregation(err error) bool {
	return errors.Is(err, ErrDuplicateAggregation)
}
