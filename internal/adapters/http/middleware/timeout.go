package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

// Timeout returns middleware that gives each request a deadline. Handlers
// stop when the context is done; if one returns past the deadline without
// writing, the response is 504 with the standard error envelope.
// skipPaths are matched against the route pattern, such as
// "/api/v1/collections/:name/import".
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	skipMap := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skipMap[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skip := skipMap[c.FullPath()]; skip || timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}

		logging.FromContext(ctx).WarnContext(ctx, "request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Duration("timeout", timeout),
		)

		dto.Abort(c, dto.ErrorCodeTimeout, "request timeout exceeded")
	}
}
