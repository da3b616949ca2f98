package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is what one fan-out function returned.
type Outcome[T any] struct {
	Value T
	Err   error
}

// FanOut runs fns with at most limit running at once and returns their
// outcomes in the order of fns. A limit below one runs them all at once.
//
// With failFast the first error cancels the context handed to the other
// functions and is returned in place of the outcomes. Without it every
// function runs to completion and the returned error is nil.
//
//	outcomes, err := FanOut(ctx, 4, strict, fetchers...)
func FanOut[T any](
	ctx context.Context,
	limit int,
	failFast bool,
	fns ...func(context.Context) (T, error),
) ([]Outcome[T], error) {
	g, runCtx := new(errgroup.Group), ctx
	if failFast {
		g, runCtx = errgroup.WithContext(ctx)
	}

	if limit < 1 {
		limit = len(fns)
	}

	g.SetLimit(max(limit, 1))

	outcomes := make([]Outcome[T], len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			value, err := fn(runCtx)
			outcomes[i] = Outcome[T]{Value: value, Err: err}

			if failFast {
				return err
			}

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("fan-out stopped: %w", err)
	}

	return outcomes, nil
}
