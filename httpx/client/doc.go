// Package client provides a small, standard-library flavored HTTP client builder with
// request interceptors.
//
// Design goals:
//   - Thin: it should not become a framework or a REST DSL.
//   - Non-invasive: New returns a plain *http.Client.
//   - No global pollution: it never mutates http.DefaultClient or http.DefaultTransport.
//
// # Interceptors
//
// A request interceptor is a Middleware that edits a clone of the outgoing request before it
// reaches the transport. The built-in ones cover the conventions shared by clientkit:
//
//   - RequestID: X-Request-Id from a generator, or a fresh UUID per request.
//   - PropagateRequestID: X-Request-Id copied from the request context.
//   - TabID: TabId from a window name.
//   - XSRFToken: X-XSRF-TOKEN from a token lookup.
//   - BearerToken: Authorization: Bearer <token>.
//
// When an interceptor fails (error or panic) the request is rejected with *InterceptorError and
// never sent. Its message falls back to DefaultInterceptorMessage when the cause has none.
//
// Interceptors registered with WithInterceptors wrap middlewares registered with WithMiddlewares.
//
//	c := client.New(
//		client.WithTimeout(2*time.Second),
//		client.WithInterceptors(client.RequestID(nil), client.TabID(nil)),
//	)
//
// # Timeouts
//
// New does not set http.Client.Timeout by default. Use WithTimeout or a context deadline.
//
// # Connection reuse
//
// Always close response bodies. ReadAllAndCloseLimit, DecodeJSONAndClose and DrainAndClose
// help with that.
package client
