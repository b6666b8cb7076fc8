package client

import "net/http"

// Middleware wraps an http.RoundTripper and returns a new one.
//
// Request interceptors (header injection, token lookup) are middlewares. They run in chain
// order before the base transport sees the request.
//
// Middleware must return a non-nil RoundTripper. The returned RoundTripper must be
// safe for concurrent use (RoundTrip may be called from multiple goroutines).
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to an http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// ValueFunc returns a header value for an outgoing request.
//
// A non-nil error rejects the request with an *InterceptorError.
type ValueFunc func(r *http.Request) (string, error)
