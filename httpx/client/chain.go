package client

import "net/http"

// Chain applies middlewares to base and returns the wrapped RoundTripper.
//
// Order:
//   - Chain(base, a, b, c) returns a(b(c(base))), so a sees the request first.
//
// If base is nil, Chain uses an independent clone of http.DefaultTransport.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = cloneDefaultTransport()
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		base = mws[i](base)
	}
	return base
}

func cloneDefaultTransport() http.RoundTripper {
	if t, ok := http.DefaultTransport.(*http.Transport); ok && t != nil {
		return t.Clone()
	}
	return http.DefaultTransport
}
