package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

var _ ports.EventPublisher = (*EventMetrics)(nil)

func sized(eventType, collection string, size int) ports.ModelEvent {
	event := ports.NewModelEvent(eventType, collection)
	event.Size = size

	return event
}

func TestEventMetrics_Publish(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	m, err := NewEventMetrics(reg)
	require.NoError(t, err)

	events := []ports.ModelEvent{
		sized(ports.EventCollectionAdded, "poems", 0),
		sized(domain.EventAddQuote, "poems", 1),
		sized(domain.EventAddQuote, "poems", 2),
		sized(domain.EventAddQuote, "default", 1),
		sized(domain.EventRemoveQuote, "poems", 1),
	}

	for _, event := range events {
		require.NoError(t, m.Publish(ctx, event))
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.events.WithLabelValues(domain.EventAddQuote)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues(domain.EventRemoveQuote)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.quotes.WithLabelValues("poems")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.quotes.WithLabelValues("default")), 0)
}

func TestEventMetrics_CollectionRemovedDropsGauge(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	m, err := NewEventMetrics(reg)
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, sized(domain.EventAddQuote, "poems", 4)))
	require.NoError(t, m.Publish(ctx, sized(domain.EventAddQuote, "default", 2)))
	require.NoError(t, m.Publish(ctx, sized(ports.EventCollectionRemoved, "poems", 4)))

	expected := `
# HELP qpq_collection_quotes Quotes held by each collection.
# TYPE qpq_collection_quotes gauge
qpq_collection_quotes{collection="default"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), CollectionQuotesName))
}

func TestNewEventMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewEventMetrics(reg)
	require.NoError(t, err)

	_, err = NewEventMetrics(reg)
	assert.Error(t, err)
}

type otherEvent struct{}

func (otherEvent) EventType() string { return "custom" }
func (otherEvent) Payload() any      { return "not a model event" }

func TestEventMetrics_ForeignEventOnlyCounts(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewEventMetrics(reg)
	require.NoError(t, err)

	require.NoError(t, m.Publish(context.Background(), otherEvent{}))

	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("custom")), 0)
	assert.Equal(t, 0, testutil.CollectAndCount(m.quotes))
}
