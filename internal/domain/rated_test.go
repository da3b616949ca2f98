package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRated(t *testing.T) {
	t.Run("rate accumulates deltas", func(t *testing.T) {
		r := NewRated(NewEmitter(), 0)

		r.Rate(10)
		r.Rate(20)
		r.Rate(-5)

		assert.Equal(t, 25, r.Rating())
	})

	t.Run("set rating emits the new value", func(t *testing.T) {
		e := NewEmitter()
		r := NewRated(e, 0)
		var got []any

		e.On(EventRating, func(args ...any) { got = append(got, args...) })
		r.SetRating(3)

		assert.Equal(t, []any{3}, got)
	})

	t.Run("unchanged rating does not emit", func(t *testing.T) {
		e := NewEmitter()
		r := NewRated(e, 4)
		count := 0

		e.On(EventRating, func(args ...any) { count++ })
		r.SetRating(4)
		r.Rate(0)

		assert.Equal(t, 0, count)
	})

	t.Run("reset returns to zero", func(t *testing.T) {
		r := NewRated(NewEmitter(), 9)
		r.ResetRating()

		assert.Equal(t, 0, r.Rating())
	})
}
