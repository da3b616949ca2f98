package acl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
)

// testConfig returns a minimal config for testing.
func testConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "test-source",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) BaseAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewBaseAdapter(client, "test-source")
}

func TestDecodeBody(t *testing.T) {
	type quote struct {
		Content string `json:"content"`
	}

	got, err := decodeBody[[]quote](io.NopCloser(strings.NewReader(`[{"content":"Know thyself."}]`)), "quotable")
	require.NoError(t, err)
	assert.Equal(t, []quote{{Content: "Know thyself."}}, got)

	_, err = decodeBody[[]quote](io.NopCloser(strings.NewReader(`{"content":`)), "quotable")
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "decoding response")

	_, err = decodeBody[[]quote](nil, "quotable")
	assert.True(t, domain.IsUnavailable(err))
}

func TestTranslateQuotes(t *testing.T) {
	translate := func(text string) (domain.SourcedQuote, error) {
		if text == "" {
			return domain.SourcedQuote{}, domain.NewValidationError("content", "is required")
		}

		return domain.SourcedQuote{Text: text}, nil
	}

	tests := []struct {
		name         string
		items        []string
		limit        int
		want         []string
		wantRejected int
	}{
		{name: "all usable", items: []string{"a", "b"}, limit: 5, want: []string{"a", "b"}},
		{name: "stops at limit", items: []string{"a", "b", "c"}, limit: 2, want: []string{"a", "b"}},
		{name: "skips rejected", items: []string{"a", "", "c"}, limit: 5, want: []string{"a", "c"}, wantRejected: 1},
		{name: "items past the limit are not translated", items: []string{"a", ""}, limit: 1, want: []string{"a"}},
		{name: "nothing usable", items: []string{"", ""}, limit: 5, want: []string{}, wantRejected: 2},
		{name: "empty response", limit: 5, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, rejected := TranslateQuotes(tt.items, tt.limit, translate)

			texts := make([]string, 0, len(quotes))
			for _, q := range quotes {
				texts = append(texts, q.Text)
			}

			assert.Equal(t, tt.want, texts)

			if tt.wantRejected == 0 {
				assert.NoError(t, rejected)
				return
			}

			assert.True(t, domain.IsValidation(rejected))

			var joined interface{ Unwrap() []error }
			require.True(t, errors.As(rejected, &joined))
			assert.Len(t, joined.Unwrap(), tt.wantRejected)
		})
	}
}

func TestBaseAdapter_Get(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quotes/random", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	body, err := adapter.Get(context.Background(), "/quotes/random", map[string][]string{"limit": {"2"}}, "fetch quotes")
	require.NoError(t, err)

	type okBody struct {
		OK bool `json:"ok"`
	}

	decoded, err := decodeBody[okBody](body, adapter.ServiceName())
	require.NoError(t, err)
	assert.True(t, decoded.OK)
	assert.Equal(t, "test-source", adapter.ServiceName())
}

func TestBaseAdapter_GetMapsStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "not found", status: http.StatusNotFound, check: domain.IsNotFound},
		{name: "bad request", status: http.StatusBadRequest, check: domain.IsValidation},
		{name: "forbidden", status: http.StatusForbidden, check: domain.IsForbidden},
		{name: "server error", status: http.StatusInternalServerError, check: domain.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			body, err := adapter.Get(context.Background(), "/quotes/random", nil, "fetch quotes")

			require.Error(t, err)
			assert.Nil(t, body)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}
