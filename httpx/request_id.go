// Request id conventions shared by the HTTP client interceptors, the realtime broker URL and
// the server middleware.
//
// Minimal server usage:
//
//	h := httpx.Wrap(finalHandler, httpx.RequestID())
//
// Extracting:
//
//	id, _ := httpx.RequestIDFromRequest(r)
package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header used for request id propagation.
const DefaultRequestIDHeader = "X-Request-Id"

// maxIncomingRequestIDLen bounds ids accepted from clients.
const maxIncomingRequestIDLen = 128

// NewRequestID returns a fresh random (version 4) UUID string.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	trustIncoming     bool
	setResponseHeader bool
	gen               func() string
}

// WithTrustIncoming controls whether a valid incoming X-Request-Id is reused. Default is true.
func WithTrustIncoming(v bool) RequestIDOption {
	return func(c *requestIDConfig) { c.trustIncoming = v }
}

// WithSetResponseHeader controls whether the id is echoed on the response. Default is true.
func WithSetResponseHeader(v bool) RequestIDOption {
	return func(c *requestIDConfig) { c.setResponseHeader = v }
}

// WithGenerator replaces NewRequestID. A nil fn is ignored.
func WithGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.gen = fn
		}
	}
}

// RequestID returns a middleware that ensures each request has a request id stored in its context.
//
// A single, well-formed incoming X-Request-Id is reused (unless WithTrustIncoming(false));
// otherwise a new id is generated. Generated ids that fail validation fall back to NewRequestID.
func RequestID(opts ...RequestIDOption) Middleware {
	cfg := requestIDConfig{
		trustIncoming:     true,
		setResponseHeader: true,
		gen:               NewRequestID,
	}
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
			id := ""
			if cfg.trustIncoming {
				// Multiple values are ambiguous; treat them as absent.
				if vs := r.Header.Values(DefaultRequestIDHeader); len(vs) == 1 && ValidRequestID(vs[0]) {
					id = vs[0]
				}
			}
			if id == "" {
				id = cfg.gen()
				if !ValidRequestID(id) {
					id = NewRequestID()
				}
			}
			if cfg.setResponseHeader {
				w.Header().Set(DefaultRequestIDHeader, id)
			}
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

type requestIDKey struct{}

// RequestIDFromContext extracts the request id from ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequestIDFromRequest extracts the request id from r.Context().
func RequestIDFromRequest(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return RequestIDFromContext(r.Context())
}

// WithRequestID returns a derived context with id stored as the request id.
//
// If id is empty, it returns ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// ValidRequestID reports whether s is a non-empty token of [A-Za-z0-9._-] no longer than 128 bytes.
func ValidRequestID(s string) bool {
	if s == "" || len(s) > maxIncomingRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		case b == '.' || b == '_' || b == '-':
		default:
			return false
		}
	}
	return true
}
