package geo

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type config struct {
	endpoint       string
	timeout        time.Duration
	httpClient     *http.Client
	headers        []string
	trusted        []netip.Prefix
	rateLimit      rate.Limit
	burst          int
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	logger         *slog.Logger
}

// Option configures NewResolver.
type Option func(*config)

func defaultConfig() config {
	return config{
		endpoint: DefaultEndpoint,
		headers:  DefaultHeaderRules,
		logger:   slog.Default(),
	}
}

// WithEndpoint sets the lookup URL template. It must contain "{ip}".
func WithEndpoint(tmpl string) Option {
	return func(c *config) {
		if tmpl != "" {
			c.endpoint = tmpl
		}
	}
}

// WithTimeout bounds each lookup. Default is 0: no client-level timeout.
// Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithHTTPClient sets the client used for lookups.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithHeaderRules replaces DefaultHeaderRules. Blank names are dropped; an empty result keeps the
// default.
func WithHeaderRules(headers []string) Option {
	return func(c *config) {
		out := make([]string, 0, len(headers))
		for _, h := range headers {
			if h != "" {
				out = append(out, h)
			}
		}
		if len(out) > 0 {
			c.headers = out
		}
	}
}

// WithTrustedProxies restricts header-based resolution to requests whose direct peer is within
// one of prefixes. See ParseTrustedProxies.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(c *config) { c.trusted = prefixes }
}

// WithRateLimit limits outgoing lookups. Lookups wait for a token, honoring the context.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *config) {
		c.rateLimit = limit
		c.burst = max(burst, 1)
	}
}

// WithMetrics registers lookup metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithTracerProvider sets the tracer provider. Defaults to the otel global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

// WithLogger sets the logger for lookup failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
