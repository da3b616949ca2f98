package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// MaxImportLimit caps the quotes requested from each source.
const MaxImportLimit = 50

// ImportRequest asks for quotes from remote sources to be added to a
// collection. No Sources means every registered source.
type ImportRequest struct {
	Collection string
	Sources    []string
	Limit      int
}

// ImportResult reports what an import added.
type ImportResult struct {
	Collection string            `json:"collection"`
	IDs        []int             `json:"ids"`
	Skipped    int               `json:"skipped"`
	Failures   map[string]string `json:"failures,omitempty"`
}

type sourceBatch struct {
	source string
	quotes []domain.SourcedQuote
}

type importFetch struct {
	batches  []sourceBatch
	failures map[string]string
}

type importPlan struct {
	texts    []string
	skipped  int
	failures map[string]string
}

// ImportQuotes fetches quotes from the requested sources and appends the
// ones the collection does not hold yet. Fetching runs without the lock.
// With the import-strict flag one failing source fails the import;
// otherwise failures are reported per source as long as one succeeded.
func (s *QuoteService) ImportQuotes(ctx context.Context, req ImportRequest) (ImportResult, error) {
	var result ImportResult

	err := s.observe(ctx, "ImportQuotes", func(ctx context.Context) error {
		req.Collection = orDefault(strings.TrimSpace(req.Collection))
		if len(req.Sources) == 0 {
			req.Sources = s.SourceNames()
		}

		var err error

		result, err = Execute(ctx, s.executor, s.importOperation(), req)

		return err
	})

	return result, err
}

func (s *QuoteService) importOperation() Operation[ImportRequest, importFetch, importPlan, ImportResult] {
	var ids []int

	return Operation[ImportRequest, importFetch, importPlan, ImportResult]{
		Name:     "ImportQuotes",
		Validate: s.validateImport,
		Perform:  s.fetchImport,
		Verify:   s.planImport,
		Archive: func(ctx context.Context, req ImportRequest, plan importPlan) error {
			return s.mutate(ctx, func(context.Context) error {
				c, err := s.collection(req.Collection)
				if err != nil {
					return err
				}

				ids = make([]int, 0, len(plan.texts))
				for _, text := range plan.texts {
					ids = append(ids, c.AddQuote(text))
				}

				return nil
			})
		},
		Respond: func(ctx context.Context, req ImportRequest, plan importPlan) (ImportResult, error) {
			s.log(ctx).InfoContext(ctx, "quotes imported",
				slog.String("collection", req.Collection),
				slog.Int("added", len(ids)),
				slog.Int("skipped", plan.skipped),
				slog.Int("failed_sources", len(plan.failures)),
			)

			return ImportResult{
				Collection: req.Collection,
				IDs:        ids,
				Skipped:    plan.skipped,
				Failures:   plan.failures,
			}, nil
		},
	}
}

func (s *QuoteService) validateImport(ctx context.Context, req ImportRequest) error {
	maxLimit := s.flags.GetInt(ctx, ports.FlagImportLimit, MaxImportLimit)
	if maxLimit < 1 || maxLimit > MaxImportLimit {
		maxLimit = MaxImportLimit
	}

	if req.Limit < 1 || req.Limit > maxLimit {
		return domain.NewValidationErrorWithValue("limit", fmt.Sprintf("must be between 1 and %d", maxLimit), req.Limit)
	}

	if len(req.Sources) == 0 {
		return domain.NewValidationError("sources", "no quote sources are configured")
	}

	for _, name := range req.Sources {
		if _, ok := s.sources[name]; !ok {
			return domain.NewValidationErrorWithValue("sources", "unknown quote source", name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.collection(req.Collection)

	return err
}

func (s *QuoteService) fetchImport(ctx context.Context, req ImportRequest) (importFetch, error) {
	fetchers := make([]func(context.Context) ([]domain.SourcedQuote, error), 0, len(req.Sources))

	for _, name := range req.Sources {
		source := s.sources[name]

		fetchers = append(fetchers, func(ctx context.Context) ([]domain.SourcedQuote, error) {
			quotes, err := source.FetchQuotes(ctx, req.Limit)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", name, err)
			}

			return quotes, nil
		})
	}

	strict := s.flags.IsEnabled(ctx, ports.FlagImportStrict, false)

	outcomes, err := FanOut(ctx, s.importConcurrency, strict, fetchers...)
	if err != nil {
		return importFetch{}, err
	}

	fetch := importFetch{failures: map[string]string{}}

	for i, o := range outcomes {
		name := req.Sources[i]
		if o.Err != nil {
			s.log(ctx).WarnContext(ctx, "quote source failed",
				slog.String("source", name),
				slog.Any("error", o.Err),
			)

			fetch.failures[name] = o.Err.Error()

			continue
		}

		fetch.batches = append(fetch.batches, sourceBatch{source: name, quotes: o.Value})
	}

	return fetch, nil
}

// planImport drops blank texts and texts the collection already holds or
// the batch repeats.
func (s *QuoteService) planImport(_ context.Context, req ImportRequest, fetch importFetch) (importPlan, error) {
	if len(fetch.batches) == 0 {
		return importPlan{}, domain.NewUnavailableError("quote sources", "every requested source failed")
	}

	s.mu.Lock()
	c, err := s.collection(req.Collection)

	var existing []string
	if err == nil {
		existing = c.RawQuotes()
	}
	s.mu.Unlock()

	if err != nil {
		return importPlan{}, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, text := range existing {
		seen[text] = struct{}{}
	}

	plan := importPlan{failures: fetch.failures}
	if len(plan.failures) == 0 {
		plan.failures = nil
	}

	for _, batch := range fetch.batches {
		for _, quote := range batch.quotes {
			text := quote.Format()
			if text == "" {
				plan.skipped++
				continue
			}

			if _, dup := seen[text]; dup {
				plan.skipped++
				continue
			}

			seen[text] = struct{}{}
			plan.texts = append(plan.texts, text)
		}
	}

	return plan, nil
}
