package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// Names of the integrity checks over the manager.
const (
	CheckDefaultCollection = "default-collection"
	CheckIndexConsistency  = "index-consistency"
	CheckCounter           = "counter"
)

// RegisterHealthChecks adds the integrity checks over the manager and one
// advisory reachability check per quote source to registry. A missing
// default collection is advisory too: callers may remove it and create it
// again, which a server out of rotation could not accept.
func (s *QuoteService) RegisterHealthChecks(registry ports.HealthRegistry) error {
	checks := []ports.HealthChecker{
		ports.NewAdvisoryCheck(CheckDefaultCollection, s.checkDefaultCollection),
		ports.NewCheck(CheckIndexConsistency, s.checkIndexConsistency),
		ports.NewCheck(CheckCounter, s.checkCounter),
	}

	for _, name := range s.sourceNames {
		source := s.sources[name]

		checks = append(checks, ports.NewAdvisoryCheck(name, func(ctx context.Context) error {
			_, err := source.FetchQuotes(ctx, 1)
			return err
		}))
	}

	var errs []error

	for _, check := range checks {
		if err := registry.Register(check); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *QuoteService) checkDefaultCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.manager.DefaultCollection(); !ok {
		return domain.CollectionNotFound(domain.DefaultCollectionName)
	}

	return nil
}

// checkIndexConsistency verifies every id index against its sequence and
// that no quote id is used twice across collections.
func (s *QuoteService) checkIndexConsistency(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	owners := make(map[int]string)

	if indexed, listed := s.manager.IndexSize(), s.manager.ItemCount(); indexed != listed {
		errs = append(errs, fmt.Errorf("manager indexes %d collections but lists %d", indexed, listed))
	}

	for i, c := range s.manager.Collections() {
		if indexed, ok := s.manager.Collection(c.ID()); !ok || indexed != c {
			errs = append(errs, fmt.Errorf("collection %q at %d is not indexed", c.ID(), i))
		}

		if indexed, listed := c.IndexSize(), c.ItemCount(); indexed != listed {
			errs = append(errs, fmt.Errorf("collection %q indexes %d quotes but lists %d", c.ID(), indexed, listed))
		}

		for _, q := range c.Quotes() {
			if indexed, ok := c.Quote(q.ID()); !ok || indexed != q {
				errs = append(errs, fmt.Errorf("quote %d is not indexed in %q", q.ID(), c.ID()))
			}

			if owner, dup := owners[q.ID()]; dup {
				errs = append(errs, domain.NewConflictErrorWithDetails("quote", "id used twice",
					strconv.Itoa(q.ID())+" in "+owner+" and "+c.ID()))
			}

			owners[q.ID()] = c.ID()
		}
	}

	return errors.Join(errs...)
}

// checkCounter verifies the next id is above every id in use.
func (s *QuoteService) checkCounter(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.manager.Counter().Peek()

	for _, c := range s.manager.Collections() {
		for _, q := range c.Quotes() {
			if q.ID() >= next {
				return domain.NewConflictErrorWithDetails("quote counter", "behind the ids in use",
					fmt.Sprintf("next id %d, quote %d in %q", next, q.ID(), c.ID()))
			}
		}
	}

	return nil
}
