package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

const (
	// HeaderRequestID names a single hop.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID spans a whole transaction, including the calls
	// an import makes to quote sources.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin context key of the request id.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key of the correlation id.
	ContextKeyCorrelationID = "correlation_id"
)

// maxInboundIDLength bounds ids taken from callers. Longer ids are
// replaced since they are echoed in error envelopes and forwarded to
// quote sources.
const maxInboundIDLength = 128

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// tracedID is one id header carried through a request.
type tracedID struct {
	header string
	ginKey string
	ctxKey idKey
	logAs  func(context.Context, string) context.Context
}

var (
	requestIDs     = tracedID{HeaderRequestID, ContextKeyRequestID, requestIDKey, logging.WithRequestID}
	correlationIDs = tracedID{HeaderCorrelationID, ContextKeyCorrelationID, correlationIDKey, logging.WithCorrelationID}
)

// RequestID returns middleware that takes the request id from the
// X-Request-ID header, or generates a UUID v4 when the header is missing or
// unusable. The id is echoed in the response, stored on both contexts and
// attached to the request logger.
func RequestID() gin.HandlerFunc {
	return requestIDs.middleware()
}

// CorrelationID is RequestID for X-Correlation-ID. A generated id marks
// this request as the origin of the transaction.
func CorrelationID() gin.HandlerFunc {
	return correlationIDs.middleware()
}

func (t tracedID) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if !usableID(id) {
			id = uuid.NewString()
		}

		// Later readers of the header, like the error envelope, see the
		// id that was actually used.
		c.Request.Header.Set(t.header, id)
		c.Header(t.header, id)
		c.Set(t.ginKey, id)

		ctx := context.WithValue(c.Request.Context(), t.ctxKey, id)
		c.Request = c.Request.WithContext(t.logAs(ctx, id))

		c.Next()
	}
}

// usableID accepts non-empty printable ASCII without spaces.
func usableID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < '!' || id[i] > '~' {
			return false
		}
	}

	return true
}

// GetRequestID returns the request id of c, or "" before RequestID ran.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id of c, or "" before
// CorrelationID ran.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

// RequestIDFromContext returns the request id stored in ctx. Source
// clients use it to forward the id.
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation id stored in ctx.
func CorrelationIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, correlationIDKey)
}

// ContextWithRequestID stores a request id in ctx, for callers outside an
// HTTP request such as the CLI import command.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFromContext(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
