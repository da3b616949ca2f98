package domain

import "reflect"

// Item is the base record shared by quotes and collections: an id, a piece
// of text content and a comparable snapshot used to detect drift.
type Item[K comparable] struct {
	*Emitter

	id             K
	content        string
	comparableHash map[string]any

	// hashObject lets composite types extend the snapshot with their own
	// fields while HasBeenChanged and StoreComparableHash stay here.
	hashObject func() map[string]any
}

// NewItem creates an item with the given id and content.
func NewItem[K comparable](id K, content string) *Item[K] {
	item := &Item[K]{
		Emitter:        NewEmitter(),
		id:             id,
		content:        content,
		comparableHash: map[string]any{},
	}
	item.hashObject = item.baseHash

	return item
}

// ID returns the item id.
func (i *Item[K]) ID() K {
	return i.id
}

// SetID changes the item id. Lists index items when they are added, so an
// item must not be re-identified while it is in a list.
func (i *Item[K]) SetID(id K) {
	i.id = id
}

// Content returns the item text.
func (i *Item[K]) Content() string {
	return i.content
}

// SetContent replaces the item text and emits EventChangeContent when it differs.
func (i *Item[K]) SetContent(content string) {
	if i.content == content {
		return
	}

	i.content = content
	i.Emit(EventChangeContent, i.content)
}

// HashObject returns the comparable state of the item.
func (i *Item[K]) HashObject() map[string]any {
	return i.hashObject()
}

// ComparableHash returns the last stored snapshot.
func (i *Item[K]) ComparableHash() map[string]any {
	return i.comparableHash
}

// StoreComparableHash stores hash as the snapshot, or a copy of the current
// hash object when hash is nil.
func (i *Item[K]) StoreComparableHash(hash map[string]any) {
	if hash == nil {
		hash = MergeObjects(nil, i.hashObject())
	}

	i.comparableHash = hash
}

// HasBeenChanged reports whether the item differs from its stored snapshot.
// An item with no stored snapshot counts as changed.
func (i *Item[K]) HasBeenChanged() bool {
	return !reflect.DeepEqual(i.comparableHash, i.hashObject())
}

func (i *Item[K]) baseHash() map[string]any {
	return map[string]any{
		"id":      i.id,
		"content": i.content,
	}
}
