package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyCommitted is returned when adding to or committing an outbox
// that has already been committed.
var ErrAlreadyCommitted = errors.New("outbox already committed")

// Action is a staged unit of work.
type Action interface {
	// Execute performs the action.
	Execute(ctx context.Context) error

	// Description returns a human-readable description for logging.
	Description() string
}

// ActionFunc adapts a function to Action.
type ActionFunc struct {
	description string
	fn          func(ctx context.Context) error
}

// NewAction creates an Action from fn.
func NewAction(description string, fn func(ctx context.Context) error) *ActionFunc {
	return &ActionFunc{description: description, fn: fn}
}

// Execute implements Action.
func (a *ActionFunc) Execute(ctx context.Context) error {
	return a.fn(ctx)
}

// Description implements Action.
func (a *ActionFunc) Description() string {
	return a.description
}

// Outbox collects actions in order.
type Outbox struct {
	mu        sync.Mutex
	actions   []Action
	committed bool
}

// New creates an empty outbox.
func New() *Outbox {
	return &Outbox{}
}

// Add stages an action.
func (o *Outbox) Add(action Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.committed {
		return ErrAlreadyCommitted
	}

	o.actions = append(o.actions, action)

	return nil
}

// Len returns the number of staged actions.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.actions)
}

// Actions returns a copy of the staged actions.
func (o *Outbox) Actions() []Action {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]Action, len(o.actions))
	copy(result, o.actions)

	return result
}

// Commit executes all staged actions in order. A failing action does not
// stop the ones after it; every failure is returned, joined.
func (o *Outbox) Commit(ctx context.Context) error {
	o.mu.Lock()
	if o.committed {
		o.mu.Unlock()
		return ErrAlreadyCommitted
	}

	o.committed = true
	actions := o.actions
	o.actions = nil
	o.mu.Unlock()

	var errs []error

	for _, action := range actions {
		if err := action.Execute(ctx); err != nil {
			errs = append(errs, fmt.Errorf("action %q failed: %w", action.Description(), err))
		}
	}

	return errors.Join(errs...)
}
