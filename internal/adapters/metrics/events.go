// Package metrics exports model events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// Metric names.
const (
	EventsTotalName      = "qpq_events_total"
	CollectionQuotesName = "qpq_collection_quotes"
)

// EventMetrics implements ports.EventPublisher by counting events and
// tracking the size of each collection.
type EventMetrics struct {
	events *prometheus.CounterVec
	quotes *prometheus.GaugeVec
}

// NewEventMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewEventMetrics(reg prometheus.Registerer) (*EventMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &EventMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventsTotalName,
			Help: "Model events published by the quote library.",
		}, []string{"event"}),
		quotes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: CollectionQuotesName,
			Help: "Quotes held by each collection.",
		}, []string{"collection"}),
	}

	if err := errors.Join(reg.Register(m.events), reg.Register(m.quotes)); err != nil {
		return nil, err
	}

	return m, nil
}

// Publish implements ports.EventPublisher.
func (m *EventMetrics) Publish(_ context.Context, event ports.Event) error {
	m.events.WithLabelValues(event.EventType()).Inc()

	model, ok := event.Payload().(ports.ModelEvent)
	if !ok || model.Collection == "" {
		return nil
	}

	if model.Type == ports.EventCollectionRemoved {
		m.quotes.DeleteLabelValues(model.Collection)
		return nil
	}

	m.quotes.WithLabelValues(model.Collection).Set(float64(model.Size))

	return nil
}
