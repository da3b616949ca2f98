package domain

import (
	"maps"
	"slices"
)

// Identifiable is satisfied by list members: comparable handles (pointers)
// that expose an id.
type Identifiable[K comparable] interface {
	comparable
	ID() K
}

// List is an ordered container of items that also indexes them by id.
// The ordered sequence is authoritative; the index only speeds up lookups.
//
// List events (EventAdd, EventRemove, EventClear and any aggregated child
// events) are emitted on the emitter of the entity that owns the list.
type List[K comparable, T Identifiable[K]] struct {
	emitter    *Emitter
	items      []T
	itemsByID  map[K]T
	aggregated map[string]string
}

// NewList creates an empty list that emits on emitter.
func NewList[K comparable, T Identifiable[K]](emitter *Emitter) *List[K, T] {
	return &List[K, T]{
		emitter:    emitter,
		itemsByID:  make(map[K]T),
		aggregated: make(map[string]string),
	}
}

// Items returns a copy of the ordered items.
func (l *List[K, T]) Items() []T {
	return slices.Clone(l.items)
}

// ItemByID returns the item registered under id.
func (l *List[K, T]) ItemByID(id K) (T, bool) {
	item, ok := l.itemsByID[id]
	return item, ok
}

// ItemIndex returns the position of item, or -1 when it is not in the list.
func (l *List[K, T]) ItemIndex(item T) int {
	return slices.Index(l.items, item)
}

// ItemCount returns the number of items.
func (l *List[K, T]) ItemCount() int {
	return len(l.items)
}

// IndexSize returns the number of ids in the id index. It differs from
// ItemCount only when an item was re-keyed while listed.
func (l *List[K, T]) IndexSize() int {
	return len(l.itemsByID)
}

// IsEmpty reports whether the list holds no items.
func (l *List[K, T]) IsEmpty() bool {
	return len(l.items) == 0
}

// Aggregate configures event forwarding from items to the list owner. Each
// key is an item event; its value is the name the owner re-emits it under,
// with the originating item prepended to the arguments. An empty value stops
// forwarding that event and detaches it from current items.
//
// Forwarding an event that is already forwarded is a programming error and
// panics with an error matching ErrDuplicateAggregation.
func (l *List[K, T]) Aggregate(events map[string]string) {
	for _, itemEvent := range slices.Sorted(maps.Keys(events)) {
		groupEvent := events[itemEvent]

		if _, ok := l.aggregated[itemEvent]; ok {
			if groupEvent != "" {
				panic(newDuplicateAggregationError(itemEvent))
			}

			for _, item := range l.items {
				if c, ok := any(item).(Connector); ok {
					c.Disconnect(l, itemEvent)
				}
			}

			delete(l.aggregated, itemEvent)
		}

		if groupEvent == "" {
			continue
		}

		l.aggregated[itemEvent] = groupEvent
		for _, item := range l.items {
			l.forward(item, itemEvent, groupEvent)
		}
	}
}

// Append adds items at the end of the list.
func (l *List[K, T]) Append(items ...T) {
	l.AddItems(items, -1)
}

// AddItems inserts items at index. A negative or out of range index appends,
// zero prepends. An item whose id is already present is moved: the existing
// entry is removed first and the target index adjusted if it sat before it.
// Emits EventAdd with the items and the position they were inserted at.
func (l *List[K, T]) AddItems(items []T, index int) {
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		if existing, ok := l.itemsByID[item.ID()]; ok {
			if current := l.ItemIndex(existing); current >= 0 {
				l.RemoveItems([]T{existing})
				if current < index {
					index--
				}
			}
		}

		if !IsEmptyObject(l.aggregated) {
			for _, itemEvent := range slices.Sorted(maps.Keys(l.aggregated)) {
				l.forward(item, itemEvent, l.aggregated[itemEvent])
			}
		}

		l.itemsByID[item.ID()] = item
	}

	at := index
	if index < 0 || index >= len(l.items) {
		at = len(l.items)
	}

	l.items = slices.Insert(l.items, at, items...)
	l.emitter.Emit(EventAdd, slices.Clone(items), at)
}

// RemoveItems removes the given items, matched by identity. Items that are
// not in the list are skipped. Emits EventRemove with the items that were
// actually removed.
func (l *List[K, T]) RemoveItems(items []T) {
	if len(items) == 0 {
		return
	}

	removed := make([]T, 0, len(items))
	for _, item := range items {
		index := l.ItemIndex(item)
		if index == -1 {
			continue
		}

		l.detach(item)
		l.items = slices.Delete(l.items, index, index+1)
		delete(l.itemsByID, item.ID())
		removed = append(removed, item)
	}

	l.emitter.Emit(EventRemove, removed)
}

// ClearItems removes every item and emits EventClear.
func (l *List[K, T]) ClearItems() {
	for _, item := range l.items {
		l.detach(item)
	}

	l.items = nil
	l.itemsByID = make(map[K]T)

	l.emitter.Emit(EventClear)
}

func (l *List[K, T]) forward(item T, itemEvent, groupEvent string) {
	c, ok := any(item).(Connector)
	if !ok {
		return
	}

	c.Connect(l, itemEvent, func(args ...any) {
		l.emitter.Emit(groupEvent, append([]any{item}, args...)...)
	})
}

func (l *List[K, T]) detach(item T) {
	if IsEmptyObject(l.aggregated) {
		return
	}

	if c, ok := any(item).(Connector); ok {
		c.Disconnect(l, slices.Collect(maps.Keys(l.aggregated))...)
	}
}
