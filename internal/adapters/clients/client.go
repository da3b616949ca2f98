package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/telemetry"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultJitterFactor = 0.25
	defaultUserAgent    = "qpq"

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Outcome labels for the client metrics.
const (
	resultCircuitOpen = "circuit_open"
	resultError       = "error"
)

// Config configures a source client.
type Config struct {
	// BaseURL prefixes every path. A feed client uses the feed URL itself
	// and fetches the empty path.
	BaseURL string

	// ServiceName is the source name used in spans, metrics and errors.
	ServiceName string

	// Timeout bounds one attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// UserAgent defaults to "qpq".
	UserAgent string

	// Accept is sent when set.
	Accept string

	Logger *slog.Logger
}

// Client fetches from one remote quote source. Attempts that fail with a
// network error, 429 or a 5xx status are retried with jittered
// exponential backoff, and every call passes through a circuit breaker.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	logger  *slog.Logger
	cb      *CircuitBreaker
	tracer  trace.Tracer
	metrics clientMetrics
}

type clientMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newClientMetrics() (clientMetrics, error) {
	meter := telemetry.Meter()

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of quote source requests, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return clientMetrics{}, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of quote source requests"),
	)
	if err != nil {
		return clientMetrics{}, fmt.Errorf("creating request counter: %w", err)
	}

	return clientMetrics{duration: duration, total: total}, nil
}

// New creates a client. cfg is copied; zero timeout, attempts and user
// agent take their defaults.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}

	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	metrics, err := newClientMetrics()
	if err != nil {
		return nil, err
	}

	logger := c.Logger.With(
		slog.String("component", "clients.Client"),
		slog.String("source", c.ServiceName),
	)

	cb := NewCircuitBreaker(c.Circuit)
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		http: &http.Client{
			Timeout:   c.Timeout,
			Transport: newTransport(c.Transport),
		},
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		cfg:     c,
		logger:  logger,
		cb:      cb,
		tracer:  telemetry.Tracer(),
		metrics: metrics,
	}, nil
}

// Get fetches path below the base URL. The caller closes the body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.buildURL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do sends req. Retries resend it unchanged, so it must not carry a
// streaming body. When retries run out on a retryable status the last
// response is returned so the caller can map it; only network failures
// on every attempt yield ErrMaxRetriesExceeded.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("source", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.record(ctx, req.Method, 0, start, resultCircuitOpen)
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.ServerAddress(req.URL.Hostname()),
			semconv.URLFull(req.URL.Redacted()),
			semconv.PeerService(c.cfg.ServiceName),
		),
	)
	defer span.End()

	c.setHeaders(ctx, req)

	resp, attempts, err := c.send(ctx, req, logger)
	span.SetAttributes(attribute.Int("qpq.source.attempts", attempts))

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, 0, start, resultError)
		logger.ErrorContext(ctx, "request failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)

		return nil, err
	}

	if retryableStatus(resp.StatusCode) {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}

	c.record(ctx, req.Method, resp.StatusCode, start, statusClass(resp.StatusCode))
	logger.DebugContext(ctx, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// send runs the attempts and reports how many were made.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	var lastErr error

	for attempt := range c.cfg.Retry.MaxAttempts {
		last := attempt == c.cfg.Retry.MaxAttempts-1

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			if !isRetryableError(err) {
				return nil, attempt + 1, err
			}

			lastErr = err
			logger.DebugContext(ctx, "attempt failed",
				slog.Int("attempt", attempt+1),
				slog.Any("error", err),
			)

			if !last {
				if err := c.wait(ctx, c.backoff(attempt)); err != nil {
					return nil, attempt + 1, err
				}
			}

			continue
		}

		if !retryableStatus(resp.StatusCode) || last {
			return resp, attempt + 1, nil
		}

		delay := c.backoff(attempt)
		if after, ok := retryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			delay = min(after, c.cfg.Retry.MaxInterval)
		}

		logger.DebugContext(ctx, "attempt answered with retryable status",
			slog.Int("attempt", attempt+1),
			slog.Int("status", resp.StatusCode),
			slog.Duration("backoff", delay),
		)

		if err := resp.Body.Close(); err != nil {
			logger.DebugContext(ctx, "failed to close response body", slog.Any("error", err))
		}

		if err := c.wait(ctx, delay); err != nil {
			return nil, attempt + 1, err
		}
	}

	return nil, c.cfg.Retry.MaxAttempts, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ServiceName returns the name the client reports in spans and errors.
func (c *Client) ServiceName() string {
	return c.cfg.ServiceName
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// setHeaders adds the identifying headers, the request and correlation
// ids of ctx, and the trace context.
func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	if c.cfg.Accept != "" {
		req.Header.Set("Accept", c.cfg.Accept)
	}

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// buildURL joins the base URL and path. The empty path addresses the base
// URL itself.
func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.baseURL
	}

	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// backoff returns InitialInterval * Multiplier^attempt capped at
// MaxInterval, spread by the jitter factor in both directions.
func (c *Client) backoff(attempt int) time.Duration {
	retry := c.cfg.Retry

	d := math.Min(
		float64(retry.InitialInterval)*math.Pow(retry.Multiplier, float64(attempt)),
		float64(retry.MaxInterval),
	)

	factor := retry.JitterFactor
	if factor <= 0 {
		factor = defaultJitterFactor
	}

	spread := rand.Float64()*2 - 1 //nolint:gosec // backoff jitter is not security sensitive

	return time.Duration(d + d*factor*spread)
}

func (c *Client) record(ctx context.Context, method string, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.PeerService(c.cfg.ServiceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
	}

	opt := metric.WithAttributes(attrs...)
	c.metrics.duration.Record(ctx, time.Since(start).Seconds(), opt)
	c.metrics.total.Add(ctx, 1, opt)
}

// statusClass labels a status as 2xx, 4xx and so on.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP
// date relative to now.
func retryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}

		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	return max(at.Sub(now), 0), true
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	if transport.MaxIdleConns <= 0 {
		transport.MaxIdleConns = defaultMaxIdleConns
	}

	if transport.MaxIdleConnsPerHost <= 0 {
		transport.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}

	if transport.IdleConnTimeout <= 0 {
		transport.IdleConnTimeout = defaultIdleConnTimeout
	}

	return transport
}

// isRetryableError reports network failures worth another attempt.
// Cancellation and deadlines of the caller's context are final.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
