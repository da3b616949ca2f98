package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItem_SetContent(t *testing.T) {
	item := NewItem("a", "old")
	var got []any

	item.On(EventChangeContent, func(args ...any) { got = append(got, args...) })

	item.SetContent("old")
	assert.Empty(t, got, "same content should not emit")

	item.SetContent("new")
	assert.Equal(t, "new", item.Content())
	assert.Equal(t, []any{"new"}, got)
}

func TestItem_HasBeenChanged(t *testing.T) {
	t.Run("fresh item counts as changed", func(t *testing.T) {
		assert.True(t, NewItem(1, "x").HasBeenChanged())
	})

	t.Run("stored snapshot matches until content changes", func(t *testing.T) {
		item := NewItem(1, "x")
		item.StoreComparableHash(nil)
		assert.False(t, item.HasBeenChanged())

		item.SetContent("y")
		assert.True(t, item.HasBeenChanged())
	})

	t.Run("explicit snapshot is stored as given", func(t *testing.T) {
		item := NewItem(1, "x")
		item.StoreComparableHash(map[string]any{"id": 1, "content": "x"})

		assert.False(t, item.HasBeenChanged())
		assert.Equal(t, map[string]any{"id": 1, "content": "x"}, item.ComparableHash())
	})

	t.Run("id change is detected", func(t *testing.T) {
		item := NewItem(1, "x")
		item.StoreComparableHash(nil)
		item.SetID(2)

		assert.True(t, item.HasBeenChanged())
	})
}

func TestQuote_HashIncludesRating(t *testing.T) {
	quote := NewQuote(3, "to be")

	assert.Equal(t, map[string]any{"id": 3, "content": "to be", "rating": 0}, quote.HashObject())

	quote.StoreComparableHash(nil)
	quote.Rate(1)

	assert.True(t, quote.HasBeenChanged())
	assert.Equal(t, "to be", quote.Text())
}
