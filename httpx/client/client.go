package client

import "net/http"

// New builds a *http.Client with an independent base transport and optional RoundTripper middlewares.
//
// It never mutates http.DefaultClient or http.DefaultTransport.
//
// Transport selection:
//   - WithRoundTripper wins when set.
//   - Else WithTransport is cloned (t.Clone()) and used as base.
//   - Else http.DefaultTransport is cloned.
//
// Middlewares registered with WithMiddlewares run after those registered with
// WithInterceptors, which lets a factory put its own interceptors first.
func New(opts ...Option) *http.Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	var base http.RoundTripper
	switch {
	case cfg.roundTripper != nil:
		base = cfg.roundTripper
	case cfg.transport != nil:
		base = cfg.transport.Clone()
	}

	mws := make([]Middleware, 0, len(cfg.interceptors)+len(cfg.middlewares))
	mws = append(mws, cfg.interceptors...)
	mws = append(mws, cfg.middlewares...)

	return &http.Client{
		Transport:     Chain(base, mws...),
		Timeout:       cfg.timeout,
		CheckRedirect: cfg.checkRedirect,
		Jar:           cfg.jar,
	}
}
