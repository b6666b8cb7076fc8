// Package httpx provides small net/http helpers shared by the clients and services in this module.
//
// # Middleware chain
//
// A middleware is a standard net/http wrapper:
//
//	type Middleware func(http.Handler) http.Handler
//
// Chain(a, b, c).Handler(h) returns a(b(c(h))). Nil middlewares are ignored, and With never
// mutates the receiver:
//
//	base := httpx.Chain(httpx.Recover(), httpx.RequestID())
//	api := base.With(httpx.Timeout(5 * time.Second))
//
// Middleware is assignable to chi's Use, so the same values serve a chi router.
//
// # Built-in middlewares
//
//   - Recover: recover panics, log them with slog and answer 500 if nothing was written.
//   - RequestID: reuse a valid incoming X-Request-Id or generate one, store it in the context and
//     echo it on the response.
//   - Timeout: derive a request context with a deadline and log requests that exceed it.
//
// # Client identity
//
// The outgoing side (see package client) stamps the same identity headers:
//
//   - NewRequestID generates request ids (UUIDv4).
//   - WindowName and SetWindowName hold the process-wide tab id sent as TabId.
//   - XSRFTokenHeader and XSRFResponseHeader name the CSRF header pair.
package httpx
