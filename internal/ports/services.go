// Package ports defines the contracts between the application layer and
// its adapters. Ports take a context first, return domain types and report
// failures with the domain error sentinels.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

// QuoteSource fetches quotes from somewhere outside the process.
type QuoteSource interface {
	// Name identifies the source in import requests, results and health checks.
	Name() string

	// FetchQuotes returns up to limit quotes.
	// Returns domain.ErrUnavailable if the source cannot be reached.
	FetchQuotes(ctx context.Context, limit int) ([]domain.SourcedQuote, error)
}

// EventPublisher receives model events after the use case that produced
// them has completed.
type EventPublisher interface {
	// Publish delivers one event. Errors are logged by the caller and never
	// undo the change that produced the event.
	Publish(ctx context.Context, event Event) error
}

// Event represents a model event that can be published.
type Event interface {
	// EventType returns the model event name, such as "addQuote".
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}

// Event types published for collection level changes. Quote level events
// reuse the manager's event names, such as "addQuote".
const (
	EventCollectionAdded   = "addCollection"
	EventCollectionRemoved = "removeCollection"
	EventCollectionRated   = "collectionRating"
	EventCollectionRenamed = "renameCollection"
)

// NoQuote marks a ModelEvent that is not about a single quote.
const NoQuote = -1

// ModelEvent is the envelope published for every event the collection
// manager emits.
type ModelEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Collection string    `json:"collection,omitempty"`
	QuoteID    int       `json:"quote_id"`
	Rating     int       `json:"rating"`
	Size       int       `json:"size"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewModelEvent creates an envelope with a fresh id and timestamp.
func NewModelEvent(eventType, collection string) ModelEvent {
	return ModelEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Collection: collection,
		QuoteID:    NoQuote,
		OccurredAt: time.Now().UTC(),
	}
}

// EventType implements Event.
func (e ModelEvent) EventType() string {
	return e.Type
}

// Payload implements Event.
func (e ModelEvent) Payload() any {
	return e
}
