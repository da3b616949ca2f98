package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/eventlog"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/feed"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/flags"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/metrics"
	"github.com/jsamuelsen/quid-pro-quote/internal/app"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/telemetry"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// application holds everything one qpq process shares between commands.
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
	metrics   *prometheus.Registry
	health    *ports.DefaultHealthRegistry
	service   *app.QuoteService
}

// loadApplication loads and validates the configuration for profile and
// wires the library from it.
func loadApplication(ctx context.Context, profile string, logOut io.Writer) (*application, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return newApplication(ctx, cfg, logOut)
}

// newApplication wires the library in dependency order: logging,
// telemetry, metrics, publishers, sources, then the seeded service and its
// health checks.
func newApplication(ctx context.Context, cfg *config.Config, logOut io.Writer) (*application, error) {
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			Level:      cfg.Log.File.Level,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, logOut)
	logging.SetDefault(logger)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	a := &application{
		cfg:       cfg,
		logger:    logger,
		telemetry: telProvider,
		metrics:   prometheus.NewRegistry(),
		health:    ports.NewHealthRegistry(),
	}

	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eventMetrics, err := metrics.NewEventMetrics(a.metrics)
	if err != nil {
		return nil, fmt.Errorf("registering event metrics: %w", err)
	}

	sources, err := newSources(cfg, logger)
	if err != nil {
		return nil, err
	}

	a.service = app.NewQuoteService(app.QuoteServiceConfig{
		Manager: domain.NewManager(managerOptions(cfg.Library)...),
		Sources: sources,
		Flags:   flags.NewStatic(cfg.Features),
		Publishers: []ports.EventPublisher{
			eventMetrics,
			eventlog.NewPublisher(logger, logging.ParseLevel(cfg.Log.EventLevel)),
		},
		Logger:            logger,
		ImportConcurrency: cfg.Library.ImportConcurrency,
	})

	if err := a.service.Seed(ctx, cfg.Library.Collections); err != nil {
		return nil, fmt.Errorf("seeding library: %w", err)
	}

	if err := a.service.RegisterHealthChecks(a.health); err != nil {
		return nil, fmt.Errorf("registering health checks: %w", err)
	}

	return a, nil
}

// close flushes telemetry. It is safe on a nil application.
func (a *application) close(ctx context.Context) {
	if a == nil {
		return
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
	}
}

func managerOptions(cfg config.LibraryConfig) []domain.ManagerOption {
	if cfg.RandomSeed == 0 {
		return nil
	}

	return []domain.ManagerOption{
		domain.WithManagerRand(rand.New(rand.NewPCG(cfg.RandomSeed, cfg.RandomSeed))), //nolint:gosec // quote picks are not security sensitive
	}
}

// newSources builds the quotable.io source when enabled and one feed
// source per configured feed, in feed name order.
func newSources(cfg *config.Config, logger *slog.Logger) ([]ports.QuoteSource, error) {
	var sources []ports.QuoteSource

	newClient := func(name, baseURL, accept string) (*clients.Client, error) {
		client, err := clients.New(&clients.Config{
			BaseURL:     baseURL,
			ServiceName: name,
			UserAgent:   cfg.App.Name + "/" + cfg.App.Version,
			Accept:      accept,
			Timeout:     cfg.Client.Timeout,
			Retry:       cfg.Client.Retry,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %w", name, err)
		}

		return client, nil
	}

	if quotable := cfg.Sources.Quotable; quotable.Enabled {
		client, err := newClient(quotable.Name, quotable.BaseURL, acl.QuotableAccept)
		if err != nil {
			return nil, err
		}

		sources = append(sources, acl.NewQuotableSource(acl.QuotableConfig{
			Client: client,
			Logger: logger,
		}))
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Sources.Feeds)) {
		client, err := newClient(name, cfg.Sources.Feeds[name], feed.Accept)
		if err != nil {
			return nil, err
		}

		sources = append(sources, feed.NewSource(feed.Config{
			Client: client,
			Logger: logger,
		}))
	}

	return sources, nil
}
