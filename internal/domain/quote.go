package domain

// Quote is a rated piece of text. Quotes live in exactly one Collection at a
// time and are identified by ids handed out by the QuoteCounter.
type Quote struct {
	*Item[int]
	*Rated
}

// NewQuote creates a quote with a caller supplied id.
func NewQuote(id int, content string) *Quote {
	q := &Quote{Item: NewItem(id, content)}
	q.Rated = NewRated(q.Emitter, 0)
	q.hashObject = q.hash

	return q
}

// Text is an alias for Content.
func (q *Quote) Text() string {
	return q.Content()
}

func (q *Quote) hash() map[string]any {
	return MergeObjects(nil, q.baseHash(), q.ratingHash())
}
