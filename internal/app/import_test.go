package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/mocks"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

func newSource(t *testing.T, name string) *mocks.MockQuoteSource {
	t.Helper()

	source := mocks.NewMockQuoteSource(t)
	source.EXPECT().Name().Return(name)

	return source
}

func sourced(texts ...string) []domain.SourcedQuote {
	quotes := make([]domain.SourcedQuote, 0, len(texts))
	for _, text := range texts {
		quotes = append(quotes, domain.SourcedQuote{Text: text})
	}

	return quotes
}

func TestQuoteService_ImportQuotes(t *testing.T) {
	ctx := context.Background()

	quotable := newSource(t, "quotable")
	quotable.EXPECT().FetchQuotes(mock.Anything, 3).Return([]domain.SourcedQuote{
		{SourceID: "q1", Text: "Stay hungry.", Author: "Steve Jobs"},
		{SourceID: "q2", Text: "Existing"},
		{SourceID: "q3", Text: "   "},
	}, nil)

	feed := newSource(t, "feed")
	feed.EXPECT().FetchQuotes(mock.Anything, 3).Return(sourced("Stay hungry. (Steve Jobs)", "Fresh"), nil)

	svc, rec := newTestService(t, QuoteServiceConfig{Sources: []ports.QuoteSource{quotable, feed}})

	_, err := svc.AddQuote(ctx, "", "Existing")
	require.NoError(t, err)
	rec.reset()

	result, err := svc.ImportQuotes(ctx, ImportRequest{Limit: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCollectionName, result.Collection)
	assert.Equal(t, []int{1, 2}, result.IDs)
	assert.Equal(t, 3, result.Skipped)
	assert.Nil(t, result.Failures)

	// sources run in name order: feed, then quotable
	page, err := svc.ListQuotes(ctx, "", -1, 0)
	require.NoError(t, err)
	require.Len(t, page.Quotes, 3)
	assert.Equal(t, "Stay hungry. (Steve Jobs)", page.Quotes[1].Text)
	assert.Equal(t, "Fresh", page.Quotes[2].Text)

	assert.Equal(t, []string{domain.EventAddQuote, domain.EventAddQuote}, rec.types())
}

func TestQuoteService_ImportQuotes_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     ImportRequest
		sources bool
	}{
		{name: "limit too small", req: ImportRequest{Limit: 0}, sources: true},
		{name: "limit too large", req: ImportRequest{Limit: MaxImportLimit + 1}, sources: true},
		{name: "unknown source", req: ImportRequest{Limit: 1, Sources: []string{"nope"}}, sources: true},
		{name: "no sources configured", req: ImportRequest{Limit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := QuoteServiceConfig{}
			if tt.sources {
				cfg.Sources = []ports.QuoteSource{newSource(t, "quotable")}
			}

			svc, _ := newTestService(t, cfg)

			_, err := svc.ImportQuotes(ctx, tt.req)

			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "unexpected error: %v", err)

			step, ok := GetExecutionStep(err)
			require.True(t, ok)
			assert.Equal(t, StepValidate, step)
		})
	}
}

func TestQuoteService_ImportQuotes_MissingCollection(t *testing.T) {
	svc, _ := newTestService(t, QuoteServiceConfig{Sources: []ports.QuoteSource{newSource(t, "quotable")}})

	_, err := svc.ImportQuotes(context.Background(), ImportRequest{Collection: "nope", Limit: 1})

	assert.True(t, domain.IsNotFound(err))
}

func TestQuoteService_ImportQuotes_LimitFlag(t *testing.T) {
	flags := mocks.NewMockFeatureFlags(t)
	flags.EXPECT().GetInt(mock.Anything, ports.FlagImportLimit, MaxImportLimit).Return(5)

	svc, _ := newTestService(t, QuoteServiceConfig{
		Sources: []ports.QuoteSource{newSource(t, "quotable")},
		Flags:   flags,
	})

	_, err := svc.ImportQuotes(context.Background(), ImportRequest{Limit: 6})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 5")
}

func TestQuoteService_ImportQuotes_PartialFailure(t *testing.T) {
	ctx := context.Background()

	up := newSource(t, "up")
	up.EXPECT().FetchQuotes(mock.Anything, 2).Return(sourced("one"), nil)

	down := newSource(t, "down")
	down.EXPECT().FetchQuotes(mock.Anything, 2).Return(nil, domain.NewUnavailableError("down", "timeout"))

	svc, _ := newTestService(t, QuoteServiceConfig{Sources: []ports.QuoteSource{up, down}})

	result, err := svc.ImportQuotes(ctx, ImportRequest{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, result.IDs, 1)
	require.Contains(t, result.Failures, "down")
	assert.Contains(t, result.Failures["down"], "timeout")
}

func TestQuoteService_ImportQuotes_AllSourcesFail(t *testing.T) {
	down := newSource(t, "down")
	down.EXPECT().FetchQuotes(mock.Anything, 2).Return(nil, errors.New("connection refused"))

	svc, rec := newTestService(t, QuoteServiceConfig{Sources: []ports.QuoteSource{down}})

	_, err := svc.ImportQuotes(context.Background(), ImportRequest{Limit: 2})

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepVerify, step)
	assert.Empty(t, rec.types())
}

func TestQuoteService_ImportQuotes_Strict(t *testing.T) {
	flags := mocks.NewMockFeatureFlags(t)
	flags.EXPECT().GetInt(mock.Anything, ports.FlagImportLimit, MaxImportLimit).Return(MaxImportLimit)
	flags.EXPECT().IsEnabled(mock.Anything, ports.FlagImportStrict, false).Return(true)

	up := newSource(t, "up")
	up.EXPECT().FetchQuotes(mock.Anything, 2).Return(sourced("one"), nil).Maybe()

	down := newSource(t, "down")
	down.EXPECT().FetchQuotes(mock.Anything, 2).Return(nil, domain.NewUnavailableError("down", "timeout"))

	svc, rec := newTestService(t, QuoteServiceConfig{
		Sources: []ports.QuoteSource{up, down},
		Flags:   flags,
	})

	_, err := svc.ImportQuotes(context.Background(), ImportRequest{Limit: 2})

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepPerform, step)
	assert.Empty(t, rec.types(), "nothing is added when a strict import fails")
}

func TestQuoteService_ImportQuotes_SelectedSources(t *testing.T) {
	chosen := newSource(t, "chosen")
	chosen.EXPECT().FetchQuotes(mock.Anything, 1).Return(sourced("picked"), nil)

	// skipped is registered but never asked
	skipped := newSource(t, "skipped")

	svc, _ := newTestService(t, QuoteServiceConfig{Sources: []ports.QuoteSource{chosen, skipped}})
	_, err := svc.AddCollection(context.Background(), "picks")
	require.NoError(t, err)

	result, err := svc.ImportQuotes(context.Background(), ImportRequest{
		Collection: "picks",
		Sources:    []string{"chosen"},
		Limit:      1,
	})

	require.NoError(t, err)
	assert.Equal(t, "picks", result.Collection)
	assert.Equal(t, []int{0}, result.IDs)
}
