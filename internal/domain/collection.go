package domain

import "math/rand/v2"

// Collection is a named, rated, ordered set of quotes. Its content doubles
// as its name. Rating changes of member quotes are re-emitted on the
// collection as EventQuoteRating.
type Collection struct {
	*Item[string]
	*List[int, *Quote]
	*Rated

	counter *QuoteCounter
	rng     *rand.Rand
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithCounter shares an id counter between collections. Without it a
// collection numbers its quotes on its own, starting at zero.
func WithCounter(counter *QuoteCounter) CollectionOption {
	return func(c *Collection) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// WithRand sets the generator used by RandomQuote.
func WithRand(rng *rand.Rand) CollectionOption {
	return func(c *Collection) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithName sets the collection name.
func WithName(name string) CollectionOption {
	return func(c *Collection) {
		c.content = name
	}
}

// WithRating sets the initial collection rating without emitting.
func WithRating(rating int) CollectionOption {
	return func(c *Collection) {
		c.rating = rating
	}
}

// NewCollection creates an empty collection with the given id.
func NewCollection(id string, opts ...CollectionOption) *Collection {
	c := &Collection{Item: NewItem(id, "")}
	c.List = NewList[int, *Quote](c.Emitter)
	c.Rated = NewRated(c.Emitter, 0)
	c.hashObject = c.hash

	for _, opt := range opts {
		opt(c)
	}

	if c.counter == nil {
		c.counter = NewQuoteCounter(0)
	}

	if c.rng == nil {
		c.rng = newRand()
	}

	c.Aggregate(map[string]string{EventRating: EventQuoteRating})

	return c
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.Content()
}

// SetName renames the collection.
func (c *Collection) SetName(name string) {
	c.SetContent(name)
}

// AddQuote creates a quote from text with the next counter id, appends it
// and returns its id.
func (c *Collection) AddQuote(text string) int {
	quote := NewQuote(c.counter.Next(), text)
	c.Append(quote)

	return quote.ID()
}

// RemoveQuote removes the quote with id. Unknown ids are ignored.
func (c *Collection) RemoveQuote(id int) {
	if quote, ok := c.ItemByID(id); ok {
		c.RemoveItems([]*Quote{quote})
	}
}

// Quote returns the quote with id.
func (c *Collection) Quote(id int) (*Quote, bool) {
	return c.ItemByID(id)
}

// QuoteText returns the text of the quote with id.
func (c *Collection) QuoteText(id int) (string, bool) {
	quote, ok := c.ItemByID(id)
	if !ok {
		return "", false
	}

	return quote.Content(), true
}

// Quotes returns the quotes in order.
func (c *Collection) Quotes() []*Quote {
	return c.Items()
}

// RandomQuote picks a quote uniformly at random. It returns false when the
// collection is empty.
func (c *Collection) RandomQuote() (*Quote, bool) {
	if c.IsEmpty() {
		return nil, false
	}

	return c.items[RandomInt(c.rng, 0, c.ItemCount()-1)], true
}

// RawQuotes returns the quote texts in order.
func (c *Collection) RawQuotes() []string {
	result := make([]string, 0, c.ItemCount())
	for _, quote := range c.items {
		result = append(result, quote.Content())
	}

	return result
}

func (c *Collection) hash() map[string]any {
	ids := make([]int, 0, c.ItemCount())
	for _, quote := range c.items {
		ids = append(ids, quote.ID())
	}

	return MergeObjects(nil, c.baseHash(), c.ratingHash(), map[string]any{"quotes": ids})
}
