// Package feed reads quotes from RSS, Atom and JSON feeds.
package feed

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

// Accept is the Accept header for feed clients, covering the formats
// gofeed detects.
const Accept = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"

// Config contains configuration for a feed source.
type Config struct {
	// Name identifies the source in imports. Defaults to the client's
	// service name.
	Name string

	// Client fetches the feed. Its BaseURL is the feed URL.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Source implements ports.QuoteSource over a syndication feed. Each item
// becomes one quote: its title, or its description when the title is
// empty, attributed to the item author.
type Source struct {
	acl.BaseAdapter

	parser *gofeed.Parser
	logger *slog.Logger
}

// NewSource creates a feed source.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewSource(cfg Config) *Source {
	if cfg.Client == nil {
		panic("feed.Source: Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		BaseAdapter: acl.NewBaseAdapter(cfg.Client, name),
		parser:      gofeed.NewParser(),
		logger:      logger.With(slog.String("source", name)),
	}
}

// Name implements ports.QuoteSource.
func (s *Source) Name() string {
	return s.ServiceName()
}

// FetchQuotes returns the first limit usable items of the feed.
// Implements ports.QuoteSource.
func (s *Source) FetchQuotes(ctx context.Context, limit int) ([]domain.SourcedQuote, error) {
	body, err := s.Get(ctx, "", nil, "fetch feed")
	if err != nil {
		s.logger.WarnContext(ctx, "feed request failed", slog.Any("error", err))
		return nil, err
	}
	defer func() { _ = body.Close() }()

	parsed, err := s.parser.Parse(body)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), "parsing feed: "+err.Error())
	}

	s.logger.Log(ctx, logging.LevelTrace, "feed parsed",
		slog.String("title", parsed.Title),
		slog.String("feed_type", parsed.FeedType),
		slog.Int("items", len(parsed.Items)))

	quotes, rejected := acl.TranslateQuotes(parsed.Items, limit, translateItem)
	if rejected != nil {
		s.logger.DebugContext(ctx, "skipped empty feed items", slog.Any("error", rejected))
	}

	return quotes, nil
}

// translateItem quotes the item title, or its description when the title
// is empty.
func translateItem(it *gofeed.Item) (domain.SourcedQuote, error) {
	text := strings.TrimSpace(it.Title)
	if text == "" {
		text = strings.TrimSpace(it.Description)
	}

	id := it.GUID
	if id == "" {
		id = it.Link
	}

	if text == "" {
		return domain.SourcedQuote{}, domain.NewValidationErrorWithValue("title", "item has no text", id)
	}

	return domain.SourcedQuote{
		SourceID: id,
		Text:     text,
		Author:   authorOf(it),
		Tags:     it.Categories,
	}, nil
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}

	for _, person := range item.Authors {
		if person != nil && person.Name != "" {
			return person.Name
		}
	}

	return ""
}
