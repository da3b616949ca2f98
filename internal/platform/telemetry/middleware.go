package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

// HeaderTraceID echoes the trace id of a sampled request.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests no route matched, which keeps the route
// attribute bounded when clients probe arbitrary paths.
const unmatchedRoute = "unmatched"

// Metrics holds HTTP server instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewMetrics creates the HTTP server instruments on the module meter.
func NewMetrics() (*Metrics, error) {
	meter := Meter()

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware records HTTP server metrics and echoes the trace id in
// X-Trace-ID. Install it after TracingMiddleware so the request context
// already carries a span. Instrument errors go to the otel error handler
// and leave requests unmeasured.
func Middleware() gin.HandlerFunc {
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)

		return traceHeader
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		attrs := routeAttrs(c)
		active := metric.WithAttributes(attrs...)

		metrics.activeRequests.Add(ctx, 1, active)
		defer metrics.activeRequests.Add(ctx, -1, active)

		traceHeader(c)

		status := c.Writer.Status()
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
		if status >= 500 {
			attrs = append(attrs, semconv.ErrorTypeKey.String(strconv.Itoa(status)))
		}

		done := metric.WithAttributes(attrs...)
		metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), done)
		metrics.requestTotal.Add(ctx, 1, done)
	}
}

// traceHeader sets X-Trace-ID before the handler writes the response and
// adds trace_id to the request logger, then runs the rest of the chain.
func traceHeader(c *gin.Context) {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		traceID := span.SpanContext().TraceID().String()

		c.Header(HeaderTraceID, traceID)
		c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), traceID))
	}

	c.Next()
}

func routeAttrs(c *gin.Context) []attribute.KeyValue {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}

	return []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(c.Request.Method),
		semconv.HTTPRoute(route),
	}
}

// TracingMiddleware returns the otelgin tracing middleware. Spans are named
// after the matched route, so /collections/:name/quotes stays one span
// name across collections.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
