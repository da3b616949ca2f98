package domain

import (
	"math/rand/v2"

	kmaps "github.com/knadh/koanf/maps"
)

// MergeObjects deep-merges each of objs into base, left to right, and
// returns base. Nested maps are merged recursively; any other value
// overwrites. A nil base starts from an empty map. The merged-in values are
// copied, so later changes to objs do not leak into base.
func MergeObjects(base map[string]any, objs ...map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any)
	}

	for _, obj := range objs {
		if len(obj) == 0 {
			continue
		}

		kmaps.Merge(kmaps.Copy(obj), base)
	}

	return base
}

// IsEmptyObject reports whether obj has no keys.
func IsEmptyObject[K comparable, V any](obj map[K]V) bool {
	return len(obj) == 0
}

// RandomInt returns a uniformly distributed integer in [lo, hi].
// When hi < lo the range is empty and lo is returned.
func RandomInt(r *rand.Rand, lo, hi int) int {
	if hi < lo {
		return lo
	}

	return lo + r.IntN(hi-lo+1)
}

// newRand returns a generator seeded from the runtime's entropy source.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // quote picking is not security sensitive
}

// NewSeededRand returns a deterministic generator for seed.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // quote picking is not security sensitive
}

// QuoteCounter hands out quote ids. It only moves forward.
type QuoteCounter struct {
	next int
}

// NewQuoteCounter creates a counter whose first id is start.
func NewQuoteCounter(start int) *QuoteCounter {
	return &QuoteCounter{next: start}
}

// Next returns the next id and advances the counter.
func (c *QuoteCounter) Next() int {
	id := c.next
	c.next++

	return id
}

// Peek returns the id Next would return without consuming it.
func (c *QuoteCounter) Peek() int {
	return c.next
}
