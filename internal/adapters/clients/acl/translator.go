package acl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

// BaseAdapter holds the client and name every source adapter needs.
type BaseAdapter struct {
	client *clients.Client
	source string
}

// NewBaseAdapter creates a base adapter. source is the name the adapter
// reports in errors, usually the configured source name.
func NewBaseAdapter(client *clients.Client, source string) BaseAdapter {
	return BaseAdapter{client: client, source: source}
}

// ServiceName returns the name of the remote source.
func (a *BaseAdapter) ServiceName() string {
	return a.source
}

// Get performs a GET request and returns the response body, which the
// caller closes. Failures come back as domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path string, query url.Values, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path, query)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.source, operation, "")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.source, operation, path)
	}

	return resp.Body, nil
}

// decodeBody decodes a JSON body into T and closes it. A malformed body
// reports the source unavailable.
func decodeBody[T any](body io.ReadCloser, source string) (T, error) {
	var result T

	if body == nil {
		return result, domain.NewUnavailableError(source, "empty response")
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return result, domain.NewUnavailableError(source, "decoding response: "+err.Error())
	}

	return result, nil
}

// TranslateQuotes maps remote items to quotes, keeping at most limit.
// Items translate rejects are skipped and their errors returned; the
// caller decides whether a response with no usable item is a failure.
func TranslateQuotes[E any](items []E, limit int, translate func(E) (domain.SourcedQuote, error)) ([]domain.SourcedQuote, error) {
	quotes := make([]domain.SourcedQuote, 0, min(limit, len(items)))

	var rejected []error

	for _, item := range items {
		if len(quotes) == limit {
			break
		}

		quote, err := translate(item)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}

		quotes = append(quotes, quote)
	}

	return quotes, errors.Join(rejected...)
}
