package httpx

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
)

// RecoverOption configures the Recover middleware.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	logger  *slog.Logger
	onPanic PanicHandler
}

// PanicHandler is called when the wrapped handler panics (except http.ErrAbortHandler).
// It must not panic; a secondary panic is logged and swallowed.
type PanicHandler func(r *http.Request, info RecoverInfo)

// RecoverInfo describes a recovered panic.
type RecoverInfo struct {
	Value any
	Stack []byte
}

// WithOnPanic sets a PanicHandler. It replaces the default log record.
func WithOnPanic(fn PanicHandler) RecoverOption {
	return func(c *recoverConfig) { c.onPanic = fn }
}

// WithRecoverLogger sets the logger for recovered panics. Default is slog.Default().
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(c *recoverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Recover returns a middleware that recovers from panics in downstream handlers.
//
// http.ErrAbortHandler is re-panicked. A 500 is written only if the response has not started.
func Recover(opts ...RecoverOption) Middleware {
	cfg := recoverConfig{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &startedWriter{ResponseWriter: w}

			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				info := RecoverInfo{Value: p, Stack: debug.Stack()}
				if cfg.onPanic == nil || callOnPanic(cfg.onPanic, r, info) != nil {
					logPanic(cfg.logger, r, info)
				}
				if !sw.started {
					http.Error(sw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// startedWriter records whether the response has started.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (w *startedWriter) WriteHeader(statusCode int) {
	w.started = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *startedWriter) Write(p []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(p)
}

func (w *startedWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *startedWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.started = true
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind Recover.
func (w *startedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("httpx: underlying ResponseWriter does not support hijacking")
	}
	c, rw, err := h.Hijack()
	if err == nil {
		w.started = true
	}
	return c, rw, err
}

func logPanic(l *slog.Logger, r *http.Request, info RecoverInfo) {
	attrs := []any{
		slog.String("component", "httpx.recover"),
		slog.Any("panic", info.Value),
		slog.String("stack", string(info.Stack)),
	}
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
		attrs = append(attrs, slog.String("method", r.Method))
		if r.URL != nil {
			attrs = append(attrs, slog.String("url", r.URL.String()))
		}
		if id, ok := RequestIDFromRequest(r); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
	}
	l.ErrorContext(ctx, "handler panicked", attrs...)
}

func callOnPanic(fn PanicHandler, r *http.Request, info RecoverInfo) (panicked any) {
	defer func() {
		if p := recover(); p != nil {
			panicked = p
		}
	}()
	fn(r, info)
	return nil
}
