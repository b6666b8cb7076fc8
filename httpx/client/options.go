package client

import (
	"net/http"
	"time"
)

type config struct {
	timeout       time.Duration
	transport     *http.Transport
	roundTripper  http.RoundTripper
	interceptors  []Middleware
	middlewares   []Middleware
	checkRedirect func(req *http.Request, via []*http.Request) error
	jar           http.CookieJar
}

// Option configures a New(...) call.
type Option func(*config)

func defaultConfig() config {
	return config{}
}

// WithTimeout sets http.Client.Timeout (total timeout).
//
// Default is 0: no client-level timeout. Callers may still bound requests with a context.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTransport sets the base *http.Transport. New clones it.
func WithTransport(t *http.Transport) Option {
	return func(c *config) { c.transport = t }
}

// WithRoundTripper sets the base http.RoundTripper. It takes precedence over WithTransport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *config) { c.roundTripper = rt }
}

// WithInterceptors appends request interceptors. They wrap every middleware added
// with WithMiddlewares.
func WithInterceptors(mws ...Middleware) Option {
	return func(c *config) {
		if len(mws) == 0 {
			return
		}
		c.interceptors = append(c.interceptors, mws...)
	}
}

// WithMiddlewares appends middlewares for the RoundTripper chain.
func WithMiddlewares(mws ...Middleware) Option {
	return func(c *config) {
		if len(mws) == 0 {
			return
		}
		c.middlewares = append(c.middlewares, mws...)
	}
}

// WithCheckRedirect sets http.Client.CheckRedirect.
func WithCheckRedirect(fn func(req *http.Request, via []*http.Request) error) Option {
	return func(c *config) { c.checkRedirect = fn }
}

// WithCookieJar sets http.Client.Jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *config) { c.jar = jar }
}
