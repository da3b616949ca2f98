package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
		ErrDuplicateAggregation,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		sentinel error
	}{
		{"missing collection", CollectionNotFound("stoics"), `collection "stoics" not found`, ErrNotFound},
		{"missing quote", QuoteNotFound("default", 7), `quote 7 not found in collection "default"`, ErrNotFound},
		{"empty collection", EmptyCollection("poets"), `quote not found in collection "poets"`, ErrNotFound},
		{"missing remote item", NewNotFoundError("quotable", "q-42"), "quotable q-42 not found", ErrNotFound},
		{"entity only", NewNotFoundError(EntityCollection, ""), "collection not found", ErrNotFound},
		{"taken name", CollectionExists("stoics"), `collection conflict: "stoics" already exists`, ErrConflict},
		{"conflict", NewConflictError("quote", "id taken"), "quote conflict: id taken", ErrConflict},
		{"conflict with details", NewConflictErrorWithDetails("quote", "id taken", "default"), "quote conflict: id taken (default)", ErrConflict},
		{"empty details", NewConflictErrorWithDetails("item", "version mismatch", ""), "item conflict: version mismatch", ErrConflict},
		{"field validation", NewValidationError("text", "is required"), "validation failed for text: is required", ErrValidation},
		{"general validation", NewValidationError("", "nothing to import"), "validation failed: nothing to import", ErrValidation},
		{"forbidden with reason", NewForbiddenError("import", "editor role required"), `operation "import" forbidden: editor role required`, ErrForbidden},
		{"forbidden", NewForbiddenError("rate", ""), `operation "rate" forbidden`, ErrForbidden},
		{"unavailable with reason", NewUnavailableError("quotable", "circuit breaker open"), `service "quotable" unavailable: circuit breaker open`, ErrUnavailable},
		{"unavailable", NewUnavailableError("quotable", ""), `service "quotable" unavailable`, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.sentinel, tt.err.(interface{ Unwrap() error }).Unwrap())
		})
	}
}

func TestNotFoundError_Fields(t *testing.T) {
	var notFound *NotFoundError

	require.ErrorAs(t, fmt.Errorf("removing: %w", QuoteNotFound("default", 123)), &notFound)
	assert.Equal(t, EntityQuote, notFound.Entity)
	assert.Equal(t, "123", notFound.ID)
	assert.Equal(t, "default", notFound.In)

	require.ErrorAs(t, CollectionNotFound("stoics"), &notFound)
	assert.Equal(t, EntityCollection, notFound.Entity)
	assert.Empty(t, notFound.In)
}

func TestValidationError_Value(t *testing.T) {
	var validation *ValidationError

	require.ErrorAs(t, NewValidationErrorWithValue("content", "is required", "q-9"), &validation)
	assert.Equal(t, "content", validation.Field)
	assert.Equal(t, "q-9", validation.Value)
}

func TestIsHelpers(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", err)) }

	helpers := map[string]struct {
		is       func(error) bool
		positive error
	}{
		"IsNotFound":             {IsNotFound, QuoteNotFound("default", 1)},
		"IsConflict":             {IsConflict, CollectionExists("default")},
		"IsValidation":           {IsValidation, NewValidationError("text", "invalid")},
		"IsForbidden":            {IsForbidden, NewForbiddenError("rate", "read only")},
		"IsUnavailable":          {IsUnavailable, NewUnavailableError("quotable", "timeout")},
		"IsDuplicateAggregation": {IsDuplicateAggregation, newDuplicateAggregationError("rating")},
	}

	for name, h := range helpers {
		t.Run(name, func(t *testing.T) {
			assert.True(t, h.is(h.positive))
			assert.True(t, h.is(wrap(h.positive)))
			assert.False(t, h.is(nil))
			assert.False(t, h.is(errors.New("plain")))
		})
	}

	assert.False(t, IsNotFound(ErrConflict))
	assert.False(t, IsConflict(ErrNotFound))
}

func TestDuplicateAggregationError(t *testing.T) {
	err := newDuplicateAggregationError("rating")

	assert.Contains(t, err.Error(), `"rating"`)
	assert.True(t, IsDuplicateAggregation(err))
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
}
