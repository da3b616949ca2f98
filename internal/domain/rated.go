package domain

// Rated adds an integer rating to an entity. Changes are announced with
// EventRating on the owning entity's emitter.
type Rated struct {
	emitter *Emitter
	rating  int
}

// NewRated creates a rating that reports to emitter.
func NewRated(emitter *Emitter, rating int) *Rated {
	return &Rated{emitter: emitter, rating: rating}
}

// SetRating stores rating and emits EventRating. Setting the current value is a no-op.
func (r *Rated) SetRating(rating int) {
	if r.rating == rating {
		return
	}

	r.rating = rating
	r.emitter.Emit(EventRating, r.rating)
}

// ResetRating sets the rating back to zero.
func (r *Rated) ResetRating() {
	r.SetRating(0)
}

// Rating returns the current rating.
func (r *Rated) Rating() int {
	return r.rating
}

// Rate adds delta to the current rating.
func (r *Rated) Rate(delta int) {
	r.SetRating(r.rating + delta)
}

func (r *Rated) ratingHash() map[string]any {
	return map[string]any{"rating": r.rating}
}
