package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// Timeout returns middleware that puts a deadline on the request context.
// Handlers observe it through ctx.Done(); the sync round and the storage
// adapters pass it down. A request that overruns is logged as a warning.
// Paths listed in skipPaths get no deadline.
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok || timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logging.FromContext(ctx).Warn("request timeout",
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.Duration("timeout", timeout),
				slog.Int("status", c.Writer.Status()),
			)
		}
	}
}
