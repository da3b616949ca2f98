// Package eventlog writes model events to the structured log.
package eventlog

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// Publisher implements ports.EventPublisher with one log record per event.
type Publisher struct {
	logger *slog.Logger
	level  slog.Level
}

// NewPublisher creates a publisher logging at level. A nil logger uses
// slog.Default().
func NewPublisher(logger *slog.Logger, level slog.Level) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		logger: logger.With(slog.String("component", "eventlog")),
		level:  level,
	}
}

// Publish implements ports.EventPublisher. The context logger wins over
// the configured one so records carry request ids.
func (p *Publisher) Publish(ctx context.Context, event ports.Event) error {
	logger := logging.FromContextOr(ctx, p.logger)
	if !logger.Enabled(ctx, p.level) {
		return nil
	}

	attrs := []slog.Attr{slog.String("event", event.EventType())}

	if model, ok := event.Payload().(ports.ModelEvent); ok {
		attrs = append(attrs,
			slog.String("event_id", model.ID.String()),
			slog.String("collection", model.Collection),
			slog.Int("rating", model.Rating),
			slog.Int("size", model.Size),
			slog.Time("occurred_at", model.OccurredAt),
		)

		if model.QuoteID != ports.NoQuote {
			attrs = append(attrs, slog.Int("quote_id", model.QuoteID))
		}
	}

	logger.LogAttrs(ctx, p.level, "model event", attrs...)

	return nil
}
