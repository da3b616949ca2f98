// Package app contains the use cases of the quote library. It owns the only
// lock around the collection manager, stages the model events a use case
// produces and publishes them once the use case has released the lock.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jsamuelsen/quid-pro-quote/internal/app/outbox"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/telemetry"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// DefaultImportConcurrency bounds concurrent source fetches when the
// config does not.
const DefaultImportConcurrency = 4

// CollectionSummary describes a collection without its quotes.
type CollectionSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Size        int    `json:"size"`
	Rating      int    `json:"rating"`
}

// QuoteView is a snapshot of a quote.
type QuoteView struct {
	ID         int    `json:"id"`
	Collection string `json:"collection"`
	Text       string `json:"text"`
	Rating     int    `json:"rating"`
}

// QuotePage is one page of a collection's quotes.
type QuotePage struct {
	Quotes  []QuoteView `json:"quotes"`
	HasMore bool        `json:"has_more"`
}

// QuoteService runs the quote library use cases against one manager.
//
// Example usage:
//
//	svc := app.NewQuoteService(app.QuoteServiceConfig{
//	    Manager:    domain.NewManager(),
//	    Sources:    []ports.QuoteSource{quotable},
//	    Publishers: []ports.EventPublisher{eventMetrics, eventLog},
//	})
//
//	id, err := svc.AddQuote(ctx, "default", "Simplicity is prerequisite for reliability.")
type QuoteService struct {
	mu      sync.Mutex
	manager *domain.Manager

	sources     map[string]ports.QuoteSource
	sourceNames []string

	flags             ports.FeatureFlags
	publishers        []ports.EventPublisher
	logger            *slog.Logger
	executor          *Executor
	importConcurrency int
	operations        metric.Int64Counter

	// set while a use case holds mu
	pending    *outbox.Outbox
	pendingCtx context.Context //nolint:containedctx // scoped to the locked section
}

// QuoteServiceConfig contains the dependencies of the quote service.
type QuoteServiceConfig struct {
	Manager           *domain.Manager
	Sources           []ports.QuoteSource
	Flags             ports.FeatureFlags
	Publishers        []ports.EventPublisher
	Logger            *slog.Logger
	ImportConcurrency int
}

// NewQuoteService creates a quote service and subscribes it to the
// manager's events. It panics without a manager or when two sources share
// a name.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Manager == nil {
		panic("app: QuoteService requires a Manager")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	flags := cfg.Flags
	if flags == nil {
		flags = defaultFlags{}
	}

	concurrency := cfg.ImportConcurrency
	if concurrency < 1 {
		concurrency = DefaultImportConcurrency
	}

	logger = logger.With(slog.String("component", "app.QuoteService"))

	s := &QuoteService{
		manager:           cfg.Manager,
		sources:           make(map[string]ports.QuoteSource, len(cfg.Sources)),
		flags:             flags,
		publishers:        slices.Clone(cfg.Publishers),
		logger:            logger,
		executor:          NewExecutor(logger),
		importConcurrency: concurrency,
		operations:        newOperationsCounter(),
	}

	for _, source := range cfg.Sources {
		name := source.Name()
		if _, dup := s.sources[name]; dup {
			panic(fmt.Sprintf("app: duplicate quote source %q", name))
		}

		s.sources[name] = source
		s.sourceNames = append(s.sourceNames, name)
	}

	slices.Sort(s.sourceNames)

	s.subscribe()

	return s
}

func newOperationsCounter() metric.Int64Counter {
	counter, err := telemetry.Meter().Int64Counter(
		"qpq.operations",
		metric.WithDescription("Quote library use cases by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		counter, _ = noop.NewMeterProvider().Meter(telemetry.InstrumentationName).Int64Counter("qpq.operations")
	}

	return counter
}

// SourceNames returns the registered quote source names, sorted.
func (s *QuoteService) SourceNames() []string {
	return slices.Clone(s.sourceNames)
}

// ListCollections returns every collection in manager order.
func (s *QuoteService) ListCollections(ctx context.Context) ([]CollectionSummary, error) {
	var summaries []CollectionSummary

	err := s.run(ctx, "ListCollections", func(context.Context) error {
		collections := s.manager.Collections()
		summaries = make([]CollectionSummary, 0, len(collections))

		for _, c := range collections {
			summaries = append(summaries, summarize(c))
		}

		return nil
	})

	return summaries, err
}

// AddCollection creates an empty collection.
func (s *QuoteService) AddCollection(ctx context.Context, name string) (CollectionSummary, error) {
	var summary CollectionSummary

	err := s.run(ctx, "AddCollection", func(ctx context.Context) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.NewValidationError("name", "cannot be empty")
		}

		if !s.manager.AddCollection(name) {
			return domain.CollectionExists(name)
		}

		c, _ := s.manager.Collection(name)
		summary = summarize(c)

		s.log(ctx).InfoContext(ctx, "collection added", slog.String("collection", name))

		return nil
	})

	return summary, err
}

// RemoveCollection removes a collection. A nil move falls back to the
// move-quotes-on-remove flag.
func (s *QuoteService) RemoveCollection(ctx context.Context, name string, move *bool) error {
	moveQuotes := s.flags.IsEnabled(ctx, ports.FlagMoveQuotesOnRemove, false)
	if move != nil {
		moveQuotes = *move
	}

	return s.run(ctx, "RemoveCollection", func(ctx context.Context) error {
		name = orDefault(name)

		c, ok := s.manager.Collection(name)
		if !ok {
			return domain.CollectionNotFound(name)
		}

		size := c.ItemCount()

		if !s.manager.RemoveCollection(name, moveQuotes) {
			return domain.CollectionNotFound(name)
		}

		s.log(ctx).InfoContext(ctx, "collection removed",
			slog.String("collection", name),
			slog.Bool("moved", moveQuotes),
			slog.Int("quotes", size),
		)

		return nil
	})
}

// RenameCollection changes a collection's display name. Its id stays.
func (s *QuoteService) RenameCollection(ctx context.Context, name, displayName string) (CollectionSummary, error) {
	var summary CollectionSummary

	err := s.run(ctx, "RenameCollection", func(ctx context.Context) error {
		displayName = strings.TrimSpace(displayName)
		if displayName == "" {
			return domain.NewValidationError("display_name", "cannot be empty")
		}

		c, err := s.collection(name)
		if err != nil {
			return err
		}

		if c.Name() != displayName {
			c.SetName(displayName)
			s.stage(collectionEvent(ports.EventCollectionRenamed, c))
		}

		summary = summarize(c)

		return nil
	})

	return summary, err
}

// RateCollection adds delta to a collection's rating and returns the result.
func (s *QuoteService) RateCollection(ctx context.Context, name string, delta int) (int, error) {
	var rating int

	err := s.run(ctx, "RateCollection", func(context.Context) error {
		c, err := s.collection(name)
		if err != nil {
			return err
		}

		c.Rate(delta)
		rating = c.Rating()

		if delta != 0 {
			s.stage(collectionEvent(ports.EventCollectionRated, c))
		}

		return nil
	})

	return rating, err
}

// AddQuote adds text to a collection, the default one when collection is
// empty, and returns the new quote id.
func (s *QuoteService) AddQuote(ctx context.Context, collection, text string) (int, error) {
	var id int

	err := s.run(ctx, "AddQuote", func(ctx context.Context) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return domain.NewValidationError("text", "cannot be empty")
		}

		var ok bool

		id, ok = s.manager.AddToCollection(text, collection)
		if !ok {
			return domain.CollectionNotFound(orDefault(collection))
		}

		s.log(ctx).DebugContext(ctx, "quote added",
			slog.String("collection", orDefault(collection)),
			slog.Int("quote_id", id),
		)

		return nil
	})

	return id, err
}

// GetQuote returns one quote.
func (s *QuoteService) GetQuote(ctx context.Context, collection string, id int) (QuoteView, error) {
	var view QuoteView

	err := s.run(ctx, "GetQuote", func(context.Context) error {
		c, q, err := s.quote(collection, id)
		if err != nil {
			return err
		}

		view = viewOf(c, q)

		return nil
	})

	return view, err
}

// RemoveQuote removes one quote.
func (s *QuoteService) RemoveQuote(ctx context.Context, collection string, id int) error {
	return s.run(ctx, "RemoveQuote", func(context.Context) error {
		c, _, err := s.quote(collection, id)
		if err != nil {
			return err
		}

		c.RemoveQuote(id)

		return nil
	})
}

// RateQuote adds delta to a quote's rating and returns the result.
func (s *QuoteService) RateQuote(ctx context.Context, collection string, id, delta int) (int, error) {
	var rating int

	err := s.run(ctx, "RateQuote", func(context.Context) error {
		_, q, err := s.quote(collection, id)
		if err != nil {
			return err
		}

		q.Rate(delta)
		rating = q.Rating()

		return nil
	})

	return rating, err
}

// ListQuotes returns up to limit quotes that follow the quote with id
// after. A negative after starts at the beginning; a limit below one
// returns the rest of the collection.
func (s *QuoteService) ListQuotes(ctx context.Context, collection string, after, limit int) (QuotePage, error) {
	var page QuotePage

	err := s.run(ctx, "ListQuotes", func(context.Context) error {
		c, err := s.collection(collection)
		if err != nil {
			return err
		}

		quotes := c.Quotes()

		start := 0
		if after >= 0 {
			cursor, ok := c.Quote(after)
			if !ok {
				return domain.NewValidationErrorWithValue("cursor", "does not name a quote in "+c.ID(), after)
			}

			start = c.ItemIndex(cursor) + 1
		}

		end := len(quotes)
		if limit > 0 && start+limit < end {
			end = start + limit
		}

		page.Quotes = make([]QuoteView, 0, end-start)
		for _, q := range quotes[start:end] {
			page.Quotes = append(page.Quotes, viewOf(c, q))
		}

		page.HasMore = end < len(quotes)

		return nil
	})

	return page, err
}

// RandomQuote picks a random quote from a collection.
func (s *QuoteService) RandomQuote(ctx context.Context, collection string) (QuoteView, error) {
	var view QuoteView

	err := s.run(ctx, "RandomQuote", func(context.Context) error {
		c, err := s.collection(collection)
		if err != nil {
			return err
		}

		q, ok := c.RandomQuote()
		if !ok {
			return domain.EmptyCollection(c.ID())
		}

		view = viewOf(c, q)

		return nil
	})

	return view, err
}

// Seed creates the named collections in sorted order and fills them.
// Existing collections are kept and appended to; blank texts are skipped.
func (s *QuoteService) Seed(ctx context.Context, library map[string][]string) error {
	return s.run(ctx, "Seed", func(ctx context.Context) error {
		names := make([]string, 0, len(library))
		for name := range library {
			names = append(names, name)
		}

		slices.Sort(names)

		added := 0

		for _, key := range names {
			name := orDefault(strings.TrimSpace(key))
			s.manager.AddCollection(name)

			for _, text := range library[key] {
				if text = strings.TrimSpace(text); text == "" {
					continue
				}

				s.manager.AddToCollection(text, name)
				added++
			}
		}

		s.log(ctx).InfoContext(ctx, "library seeded",
			slog.Int("collections", len(names)),
			slog.Int("quotes", added),
		)

		return nil
	})
}

// run wraps fn in the span, counter and lock every use case shares.
func (s *QuoteService) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.observe(ctx, op, func(ctx context.Context) error {
		return s.mutate(ctx, fn)
	})
}

// observe traces fn and counts its outcome. It takes no lock.
func (s *QuoteService) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.Tracer().Start(ctx, "QuoteService."+op)
	defer span.End()

	ctx = logging.Scoped(ctx, s.logger, slog.String("operation", op))

	err := fn(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))

	return err
}

// mutate runs fn under the lock and publishes the events it staged after
// the lock is released.
func (s *QuoteService) mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	box := outbox.New()
	err := s.locked(ctx, box, fn)
	s.publish(ctx, box)

	return err
}

func (s *QuoteService) locked(ctx context.Context, box *outbox.Outbox, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending, s.pendingCtx = box, ctx
	defer func() { s.pending, s.pendingCtx = nil, nil }()

	return fn(ctx)
}

func (s *QuoteService) publish(ctx context.Context, box *outbox.Outbox) {
	if box.Len() == 0 {
		return
	}

	err := box.Commit(ctx)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "publishing model events failed",
			slog.Int("actions", box.Len()),
			slog.Any("error", err),
		)
	}
}

// stage queues event for every publisher. Outside a use case, for example
// when the manager is changed directly, the event is published at once.
func (s *QuoteService) stage(event ports.ModelEvent) {
	ctx := s.pendingCtx
	if ctx == nil {
		ctx = context.Background()
	}

	s.log(ctx).Log(ctx, logging.LevelTrace, "model event",
		slog.String("event", event.Type),
		slog.String("collection", event.Collection),
		slog.Int("quote_id", event.QuoteID),
	)

	if len(s.publishers) == 0 {
		return
	}

	box := s.pending
	if box == nil {
		box = outbox.New()
		defer s.publish(ctx, box)
	}

	for _, publisher := range s.publishers {
		_ = box.Add(outbox.NewAction("publish "+event.Type, func(ctx context.Context) error {
			return publisher.Publish(ctx, event)
		}))
	}
}

// subscribe forwards the manager's events into stage.
func (s *QuoteService) subscribe() {
	m := s.manager

	for _, name := range []string{domain.EventAddQuote, domain.EventRemoveQuote} {
		m.Connect(s, name, func(args ...any) {
			c, ok := argAt[*domain.Collection](args, 0)
			if !ok {
				return
			}

			quotes, _ := argAt[[]*domain.Quote](args, 1)
			for _, q := range quotes {
				s.stage(quoteEvent(name, c, q))
			}
		})
	}

	m.Connect(s, domain.EventClearQuotes, func(args ...any) {
		if c, ok := argAt[*domain.Collection](args, 0); ok {
			s.stage(collectionEvent(domain.EventClearQuotes, c))
		}
	})

	m.Connect(s, domain.EventQuoteItemRating, func(args ...any) {
		c, okC := argAt[*domain.Collection](args, 0)
		q, okQ := argAt[*domain.Quote](args, 1)

		if okC && okQ {
			s.stage(quoteEvent(domain.EventQuoteItemRating, c, q))
		}
	})

	collectionsChanged := map[string]string{
		domain.EventAdd:    ports.EventCollectionAdded,
		domain.EventRemove: ports.EventCollectionRemoved,
	}

	for name, published := range collectionsChanged {
		m.Connect(s, name, func(args ...any) {
			collections, _ := argAt[[]*domain.Collection](args, 0)
			for _, c := range collections {
				s.stage(collectionEvent(published, c))
			}
		})
	}
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// collection resolves name, the default collection when empty. Callers
// hold mu.
func (s *QuoteService) collection(name string) (*domain.Collection, error) {
	name = orDefault(name)

	c, ok := s.manager.Collection(name)
	if !ok {
		return nil, domain.CollectionNotFound(name)
	}

	return c, nil
}

func (s *QuoteService) quote(collection string, id int) (*domain.Collection, *domain.Quote, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, nil, err
	}

	q, ok := c.Quote(id)
	if !ok {
		return nil, nil, domain.QuoteNotFound(c.ID(), id)
	}

	return c, q, nil
}

func argAt[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}

	v, ok := args[i].(T)

	return v, ok
}

func quoteEvent(eventType string, c *domain.Collection, q *domain.Quote) ports.ModelEvent {
	event := collectionEvent(eventType, c)
	event.QuoteID = q.ID()
	event.Rating = q.Rating()

	return event
}

func collectionEvent(eventType string, c *domain.Collection) ports.ModelEvent {
	event := ports.NewModelEvent(eventType, c.ID())
	event.Rating = c.Rating()
	event.Size = c.ItemCount()

	return event
}

func summarize(c *domain.Collection) CollectionSummary {
	return CollectionSummary{
		Name:        c.ID(),
		DisplayName: c.Name(),
		Size:        c.ItemCount(),
		Rating:      c.Rating(),
	}
}

func viewOf(c *domain.Collection, q *domain.Quote) QuoteView {
	return QuoteView{
		ID:         q.ID(),
		Collection: c.ID(),
		Text:       q.Text(),
		Rating:     q.Rating(),
	}
}

func orDefault(name string) string {
	if name == "" {
		return domain.DefaultCollectionName
	}

	return name
}

// defaultFlags answers every flag with its default.
type defaultFlags struct{}

func (defaultFlags) IsEnabled(_ context.Context, _ string, defaultValue bool) bool { return defaultValue }

func (defaultFlags) GetString(_ context.Context, _ string, defaultValue string) string {
	return defaultValue
}

func (defaultFlags) GetInt(_ context.Context, _ string, defaultValue int) int { return defaultValue }
