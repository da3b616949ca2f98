package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

var _ ports.QuoteSource = (*Source)(nil)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Quote of the Day</title>
    <link>https://example.com</link>
    <description>Daily quotes</description>
    <item>
      <title>Well done is better than well said.</title>
      <author>ben@example.com (Benjamin Franklin)</author>
      <guid>qotd-1</guid>
      <category>wisdom</category>
    </item>
    <item>
      <title></title>
      <description>Brevity is the soul of wit.</description>
      <link>https://example.com/2</link>
    </item>
    <item>
      <title>   </title>
    </item>
    <item>
      <title>The third usable quote.</title>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Quotes</title>
  <id>urn:quotes</id>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Simplicity is prerequisite for reliability.</title>
    <id>urn:quotes:1</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <author><name>Edsger W. Dijkstra</name></author>
  </entry>
</feed>`

func setupSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(&clients.Config{
		ServiceName: "qotd",
		BaseURL:     server.URL + "/feed.xml",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
	})
	require.NoError(t, err)

	return NewSource(Config{
		Client: client,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func serve(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestNewSource_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() {
		NewSource(Config{Name: "qotd"})
	})
}

func TestSource_Name(t *testing.T) {
	source := setupSource(t, serve(rssFeed))

	assert.Equal(t, "qotd", source.Name())
}

func TestSource_FetchQuotesRSS(t *testing.T) {
	source := setupSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed.xml", r.URL.Path)
		_, _ = w.Write([]byte(rssFeed))
	})

	quotes, err := source.FetchQuotes(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, quotes, 3)

	assert.Equal(t, "qotd-1", quotes[0].SourceID)
	assert.Equal(t, "Well done is better than well said.", quotes[0].Text)
	assert.Equal(t, "Benjamin Franklin", quotes[0].Author)
	assert.Equal(t, []string{"wisdom"}, quotes[0].Tags)

	assert.Equal(t, "Brevity is the soul of wit.", quotes[1].Text)
	assert.Equal(t, "https://example.com/2", quotes[1].SourceID)
	assert.Empty(t, quotes[1].Author)

	assert.Equal(t, "The third usable quote.", quotes[2].Text)
}

func TestSource_FetchQuotesRespectsLimit(t *testing.T) {
	source := setupSource(t, serve(rssFeed))

	quotes, err := source.FetchQuotes(context.Background(), 2)

	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestSource_FetchQuotesAtom(t *testing.T) {
	source := setupSource(t, serve(atomFeed))

	quotes, err := source.FetchQuotes(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Simplicity is prerequisite for reliability. (Edsger W. Dijkstra)", quotes[0].Format())
}

func TestSource_FetchQuotesErrors(t *testing.T) {
	t.Run("not a feed", func(t *testing.T) {
		source := setupSource(t, serve("<html><body>nope</body></html>"))

		_, err := source.FetchQuotes(context.Background(), 5)

		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
		assert.Contains(t, err.Error(), "parsing feed")
	})

	t.Run("missing feed", func(t *testing.T) {
		source := setupSource(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := source.FetchQuotes(context.Background(), 5)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}
