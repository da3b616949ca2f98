package domain

// Event names emitted by the model.
const (
	// EventAdd fires on a list after items were added: (items, index).
	EventAdd = "add"

	// EventRemove fires on a list after items were removed: (items).
	EventRemove = "remove"

	// EventClear fires on a list after it was emptied. No arguments.
	EventClear = "clear"

	// EventRating fires on a rated item whose rating changed: (rating).
	EventRating = "rating"

	// EventChangeContent fires on an item whose content changed: (content).
	EventChangeContent = "changeContent"

	// EventQuoteRating is a collection's forwarding of EventRating: (quote, rating).
	EventQuoteRating = "quoteRating"

	// EventAddQuote is the manager's forwarding of a collection's EventAdd.
	EventAddQuote = "addQuote"

	// EventRemoveQuote is the manager's forwarding of a collection's EventRemove.
	EventRemoveQuote = "removeQuote"

	// EventClearQuotes is the manager's forwarding of a collection's EventClear.
	EventClearQuotes = "clearQuotes"

	// EventQuoteItemRating is the manager's forwarding of EventQuoteRating:
	// (collection, quote, rating).
	EventQuoteItemRating = "quoteItemRating"
)

// Listener receives the arguments of an emitted event.
type Listener func(args ...any)

// Connector is implemented by anything that accepts owner-scoped listeners.
// Lists only forward events for items that implement it.
type Connector interface {
	Connect(owner any, event string, fn Listener)
	Disconnect(owner any, events ...string)
}

type subscription struct {
	owner any
	fn    Listener
}

// Emitter is a synchronous named-event dispatcher. Listeners run in
// registration order, inside the Emit call. The zero value is ready to use.
//
// Owners passed to Connect and Disconnect must be comparable (pointers in
// practice); they scope listeners so a container can detach everything it
// attached to a child in one call.
type Emitter struct {
	listeners map[string][]subscription
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]subscription)}
}

// On registers a listener that is not tied to any owner.
func (e *Emitter) On(event string, fn Listener) {
	e.Connect(nil, event, fn)
}

// Connect registers fn for event on behalf of owner.
func (e *Emitter) Connect(owner any, event string, fn Listener) {
	if fn == nil {
		return
	}

	if e.listeners == nil {
		e.listeners = make(map[string][]subscription)
	}

	e.listeners[event] = append(e.listeners[event], subscription{owner: owner, fn: fn})
}

// Disconnect removes owner's listeners for the given events, or for every
// event when none are named.
func (e *Emitter) Disconnect(owner any, events ...string) {
	if len(events) == 0 {
		for event := range e.listeners {
			events = append(events, event)
		}
	}

	for _, event := range events {
		subs := e.listeners[event]
		kept := subs[:0]
		for _, sub := range subs {
			if sub.owner != owner {
				kept = append(kept, sub)
			}
		}

		if len(kept) == 0 {
			delete(e.listeners, event)
			continue
		}

		e.listeners[event] = kept
	}
}

// Emit calls every listener of event with args and reports whether any
// listener was registered. Listeners added or removed while emitting take
// effect on the next emission.
func (e *Emitter) Emit(event string, args ...any) bool {
	subs := e.listeners[event]
	if len(subs) == 0 {
		return false
	}

	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)

	for _, sub := range snapshot {
		sub.fn(args...)
	}

	return true
}

// ListenerCount returns how many listeners are registered for event.
func (e *Emitter) ListenerCount(event string) int {
	return len(e.listeners[event])
}
