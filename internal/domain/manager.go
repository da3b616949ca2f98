package domain

import "math/rand/v2"

// DefaultCollectionName is the id of the collection every Manager starts with.
const DefaultCollectionName = "default"

// Manager is the root registry of collections. It starts with a single
// "default" collection, routes quote operations to collections by name and
// re-emits their events:
//
//	add         -> addQuote
//	remove      -> removeQuote
//	clear       -> clearQuotes
//	quoteRating -> quoteItemRating
//
// The manager owns the quote id counter, so ids are unique across all of
// its collections.
type Manager struct {
	*Emitter
	*List[string, *Collection]

	counter *QuoteCounter
	rng     *rand.Rand
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerCounter replaces the manager's quote id counter.
func WithManagerCounter(counter *QuoteCounter) ManagerOption {
	return func(m *Manager) {
		if counter != nil {
			m.counter = counter
		}
	}
}

// WithManagerRand sets the generator collections use for random picks.
func WithManagerRand(rng *rand.Rand) ManagerOption {
	return func(m *Manager) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// NewManager creates a manager holding only the default collection.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		Emitter: NewEmitter(),
		counter: NewQuoteCounter(0),
	}
	m.List = NewList[string, *Collection](m.Emitter)

	for _, opt := range opts {
		opt(m)
	}

	if m.rng == nil {
		m.rng = newRand()
	}

	m.Append(m.newCollection(DefaultCollectionName))

	m.Aggregate(map[string]string{
		EventAdd:         EventAddQuote,
		EventRemove:      EventRemoveQuote,
		EventClear:       EventClearQuotes,
		EventQuoteRating: EventQuoteItemRating,
	})

	return m
}

// Counter returns the quote id counter shared by the manager's collections.
func (m *Manager) Counter() *QuoteCounter {
	return m.counter
}

// AddToCollection adds a quote to the named collection, or to the default
// collection when name is empty. It returns false, and creates nothing,
// when the collection does not exist.
func (m *Manager) AddToCollection(text, name string) (int, bool) {
	collection, ok := m.Collection(orDefault(name))
	if !ok {
		return 0, false
	}

	return collection.AddQuote(text), true
}

// AddCollection creates an empty collection called name unless one exists.
// It reports whether a collection was created.
func (m *Manager) AddCollection(name string) bool {
	if _, ok := m.Collection(name); ok {
		return false
	}

	m.Append(m.newCollection(name))

	return true
}

// RemoveCollection removes the named collection. Its quotes are dropped
// unless moveQuotesToDefault is set, in which case they are appended to the
// default collection first. It reports whether a collection was removed.
func (m *Manager) RemoveCollection(name string, moveQuotesToDefault bool) bool {
	collection, ok := m.Collection(name)
	if !ok {
		return false
	}

	moved := false
	if moveQuotesToDefault && name != DefaultCollectionName {
		if target, ok := m.DefaultCollection(); ok {
			target.Append(collection.Items()...)
			moved = true
		}
	}

	m.RemoveItems([]*Collection{collection})

	// Moved quotes belong to the default collection now; drop the old
	// collection's subscriptions on them.
	if moved {
		collection.ClearItems()
	}

	return true
}

// Collection returns the collection with the given name.
func (m *Manager) Collection(name string) (*Collection, bool) {
	return m.ItemByID(name)
}

// DefaultCollection returns the default collection, unless it was removed.
func (m *Manager) DefaultCollection() (*Collection, bool) {
	return m.Collection(DefaultCollectionName)
}

// Collections returns the collections in order.
func (m *Manager) Collections() []*Collection {
	return m.Items()
}

// CollectionNames returns the collection ids in order.
func (m *Manager) CollectionNames() []string {
	names := make([]string, 0, m.ItemCount())
	for _, collection := range m.items {
		names = append(names, collection.ID())
	}

	return names
}

// Quote returns a quote from the named collection.
func (m *Manager) Quote(collectionName string, quoteID int) (*Quote, bool) {
	collection, ok := m.Collection(collectionName)
	if !ok {
		return nil, false
	}

	return collection.Quote(quoteID)
}

// RawQuotes returns the quote texts of the named collection (default when
// empty). A missing collection yields an empty slice.
func (m *Manager) RawQuotes(name string) []string {
	collection, ok := m.Collection(orDefault(name))
	if !ok {
		return []string{}
	}

	return collection.RawQuotes()
}

// RandomQuote picks a random quote from the named collection (default when
// empty). It returns false for a missing or empty collection.
func (m *Manager) RandomQuote(name string) (*Quote, bool) {
	collection, ok := m.Collection(orDefault(name))
	if !ok {
		return nil, false
	}

	return collection.RandomQuote()
}

func (m *Manager) newCollection(name string) *Collection {
	return NewCollection(name, WithName(name), WithCounter(m.counter), WithRand(m.rng))
}

func orDefault(name string) string {
	if name == "" {
		return DefaultCollectionName
	}

	return name
}
