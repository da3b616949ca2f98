package acl

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

const quotableRandomPath = "/quotes/random"

// QuotableAccept is the Accept header for quotable.io clients.
const QuotableAccept = "application/json"

// QuotableConfig contains configuration for the quotable.io source.
type QuotableConfig struct {
	// Name identifies the source in imports. Defaults to the client's
	// service name.
	Name string

	// Client is the HTTP client to use. Its BaseURL points at the API root.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// QuotableSource implements ports.QuoteSource using the quotable.io API.
type QuotableSource struct {
	BaseAdapter

	logger *slog.Logger
}

// NewQuotableSource creates a quotable.io source.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewQuotableSource(cfg QuotableConfig) *QuotableSource {
	if cfg.Client == nil {
		panic("QuotableSource: Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuotableSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		logger:      logger.With(slog.String("source", name)),
	}
}

// quotableQuote is the quotable.io DTO. It never leaves this package.
type quotableQuote struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// Name implements ports.QuoteSource.
func (s *QuotableSource) Name() string {
	return s.ServiceName()
}

// FetchQuotes returns up to limit random quotes.
// Implements ports.QuoteSource.
func (s *QuotableSource) FetchQuotes(ctx context.Context, limit int) ([]domain.SourcedQuote, error) {
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}

	s.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", quotableRandomPath),
		slog.Int("limit", limit))

	body, err := s.Get(ctx, quotableRandomPath, query, "fetch quotes")
	if err != nil {
		s.logger.WarnContext(ctx, "quotable request failed", slog.Any("error", err))
		return nil, err
	}

	ext, err := decodeBody[[]quotableQuote](body, s.ServiceName())
	if err != nil {
		return nil, err
	}

	quotes, rejected := TranslateQuotes(ext, limit, translateQuotable)
	if rejected != nil {
		if len(quotes) == 0 {
			return nil, rejected
		}

		s.logger.DebugContext(ctx, "skipped unusable quotable quotes", slog.Any("error", rejected))
	}

	s.logger.Log(ctx, logging.LevelTrace, "translated quotable quotes",
		slog.Int("count", len(quotes)))

	return quotes, nil
}

func translateQuotable(ext quotableQuote) (domain.SourcedQuote, error) {
	if strings.TrimSpace(ext.Content) == "" {
		return domain.SourcedQuote{}, domain.NewValidationErrorWithValue("content", "is required", ext.ID)
	}

	return domain.SourcedQuote{
		SourceID: ext.ID,
		Text:     ext.Content,
		Author:   ext.Author,
		Tags:     ext.Tags,
	}, nil
}
