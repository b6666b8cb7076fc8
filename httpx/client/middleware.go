package client

import (
	"context"
	"net/http"

	"github.com/evan-idocoding/clientkit/httpx"
)

// SetHeader returns a middleware that sets a request header for every request.
//
// It clones the request before mutation to avoid touching the original request.
// If key is empty, it returns a no-op middleware.
func SetHeader(key, value string) Middleware {
	if key == "" {
		return noop
	}
	return Intercept("set-header", func(r *http.Request) error {
		r.Header.Set(key, value)
		return nil
	})
}

// SetDefaultHeader sets key only when the request does not carry it yet.
func SetDefaultHeader(key, value string) Middleware {
	if key == "" {
		return noop
	}
	return Intercept("default-header", func(r *http.Request) error {
		if r.Header.Get(key) == "" {
			r.Header.Set(key, value)
		}
		return nil
	})
}

// Intercept returns a middleware that runs fn on a clone of every outgoing request.
//
// If fn returns an error or panics, the request is rejected with an *InterceptorError
// named name and the next RoundTripper is not called.
func Intercept(name string, fn func(r *http.Request) error) Middleware {
	if fn == nil {
		return noop
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r2 := r.Clone(r.Context())
			if r2.Header == nil {
				r2.Header = make(http.Header)
			}
			if err := runInterceptor(fn, r2); err != nil {
				return nil, &InterceptorError{Interceptor: name, Err: err}
			}
			return next.RoundTrip(r2)
		})
	}
}

// HeaderFrom sets key to the value produced by fn. Empty values leave the header untouched.
func HeaderFrom(name, key string, fn ValueFunc) Middleware {
	if key == "" || fn == nil {
		return noop
	}
	return Intercept(name, func(r *http.Request) error {
		v, err := fn(r)
		if err != nil {
			return err
		}
		if v != "" {
			r.Header.Set(key, v)
		}
		return nil
	})
}

// RequestID sets httpx.DefaultRequestIDHeader on every request.
//
// The id comes from gen when it is non-nil, otherwise a fresh UUID per request.
func RequestID(gen func() (string, error)) Middleware {
	return HeaderFrom("request-id", httpx.DefaultRequestIDHeader, func(*http.Request) (string, error) {
		if gen == nil {
			return httpx.NewRequestID(), nil
		}
		return gen()
	})
}

// PropagateRequestID copies the request id stored in the request context
// (httpx.WithRequestID) into the outgoing header, unless the caller already set one.
func PropagateRequestID() Middleware {
	return Intercept("request-id", func(r *http.Request) error {
		if r.Header.Get(httpx.DefaultRequestIDHeader) != "" {
			return nil
		}
		if id, ok := httpx.RequestIDFromContext(r.Context()); ok {
			r.Header.Set(httpx.DefaultRequestIDHeader, id)
		}
		return nil
	})
}

// TabID sets httpx.TabIDHeader from name. A nil name uses httpx.WindowName.
func TabID(name func() string) Middleware {
	if name == nil {
		name = httpx.WindowName
	}
	return HeaderFrom("tab-id", httpx.TabIDHeader, func(*http.Request) (string, error) {
		return name(), nil
	})
}

// XSRFToken sets httpx.XSRFTokenHeader to the value returned by fn.
// A nil fn disables the interceptor.
func XSRFToken(fn func(ctx context.Context) (string, error)) Middleware {
	if fn == nil {
		return noop
	}
	return HeaderFrom("xsrf-token", httpx.XSRFTokenHeader, func(r *http.Request) (string, error) {
		return fn(r.Context())
	})
}

// BearerToken sets "Authorization: Bearer <token>" unless the request already has
// an Authorization header. An empty token disables the interceptor.
func BearerToken(token string) Middleware {
	if token == "" {
		return noop
	}
	return Intercept("bearer-token", func(r *http.Request) error {
		if r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	})
}

func noop(next http.RoundTripper) http.RoundTripper { return next }

func runInterceptor(fn func(*http.Request) error, r *http.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()
	return fn(r)
}
