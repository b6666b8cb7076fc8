package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// TimeoutOption configures the Timeout middleware.
type TimeoutOption func(*timeoutConfig)

type timeoutConfig struct {
	logger *slog.Logger
}

// WithTimeoutLogger sets the logger that records requests whose deadline expired.
// Default is slog.Default().
func WithTimeoutLogger(l *slog.Logger) TimeoutOption {
	return func(c *timeoutConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Timeout returns a middleware that derives a request context with deadline now+d.
//
// It is cooperative: no response is written and no goroutine is started, so downstream code
// must honor the context. An existing earlier deadline is kept, and d <= 0 disables the
// middleware. A request that ends with context.DeadlineExceeded is logged at warn level.
func Timeout(d time.Duration, opts ...TimeoutOption) Middleware {
	cfg := timeoutConfig{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parent := r.Context()
			start := time.Now()
			deadline := start.Add(d)
			if have, ok := parent.Deadline(); ok && !deadline.Before(have) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithDeadline(parent, deadline)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				attrs := []any{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", d),
					slog.Duration("elapsed", time.Since(start)),
				}
				if id, ok := RequestIDFromContext(parent); ok {
					attrs = append(attrs, slog.String("request_id", id))
				}
				cfg.logger.WarnContext(ctx, "request deadline exceeded", attrs...)
			}
		})
	}
}
