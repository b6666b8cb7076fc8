package geo

import (
	"context"
	"net/http"

	"google.golang.org/grpc"

	"github.com/evan-idocoding/clientkit/httpx"
)

type clientIPKey struct{}
type locationKey struct{}

// WithClientIP returns a derived context carrying ip. An empty ip returns ctx unchanged.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the client IP stored by ClientIPMiddleware, Middleware or
// UnaryServerInterceptor.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	return ip, ok && ip != ""
}

// WithLocation returns a derived context carrying loc. A nil loc returns ctx unchanged.
func WithLocation(ctx context.Context, loc *Location) context.Context {
	if loc == nil {
		return ctx
	}
	return context.WithValue(ctx, locationKey{}, loc)
}

// LocationFromContext returns the location stored by Middleware.
func LocationFromContext(ctx context.Context) (*Location, bool) {
	loc, ok := ctx.Value(locationKey{}).(*Location)
	return loc, ok && loc != nil
}

// ClientIPMiddleware stores the resolved client IP in the request context.
func ClientIPMiddleware(r *Resolver) httpx.Middleware {
	if r == nil {
		panic("geo: nil resolver")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip, ok := r.ClientIP(HTTPRequest(req))
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithClientIP(req.Context(), ip)))
		})
	}
}

// Middleware stores the client IP and its location in the request context.
//
// It performs one lookup per request. A failed lookup leaves the location absent and the request
// proceeds.
func Middleware(r *Resolver) httpx.Middleware {
	if r == nil {
		panic("geo: nil resolver")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			ip, ok := r.ClientIP(HTTPRequest(req))
			if ok {
				ctx = WithClientIP(ctx, ip)
				ctx = WithLocation(ctx, r.resolveIP(ctx, ip))
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// UnaryServerInterceptor stores the client IP of each gRPC call in its context.
// A nil r resolves with DefaultHeaderRules.
func UnaryServerInterceptor(r *Resolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var ip string
		var ok bool
		if r != nil {
			ip, ok = r.ClientIP(GRPCRequest(ctx))
		} else {
			ip, ok = ResolveClientIP(GRPCRequest(ctx))
		}
		if ok {
			ctx = WithClientIP(ctx, ip)
		}
		return handler(ctx, req)
	}
}
