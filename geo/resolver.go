package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/evan-idocoding/clientkit/httpx"
	"github.com/evan-idocoding/clientkit/httpx/client"
)

// DefaultEndpoint is the lookup URL template; {ip} is replaced with the path-escaped client IP.
const DefaultEndpoint = "http://ip-api.com/json/{ip}"

const maxLookupBody = 64 << 10

var (
	// ErrNoClientIP means no valid client IP could be resolved, so no lookup was made.
	ErrNoClientIP = errors.New("geo: no client ip")
	// ErrUnexpectedStatus means the lookup service answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("geo: unexpected lookup status")
	// ErrLookupFailed means the lookup service answered but reported a failure.
	ErrLookupFailed = errors.New("geo: lookup failed")
)

// Resolver resolves client IPs and looks up their location.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	endpoint string
	http     *http.Client
	headers  []string
	trusted  []netip.Prefix
	limiter  *rate.Limiter
	metrics  *metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(opts ...Option) *Resolver {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = client.New(
			client.WithTimeout(cfg.timeout),
			client.WithMiddlewares(
				client.PropagateRequestID(),
				client.SetDefaultHeader("Accept", "application/json"),
			),
		)
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	r := &Resolver{
		endpoint: cfg.endpoint,
		http:     hc,
		headers:  cfg.headers,
		trusted:  cfg.trusted,
		tracer:   tp.Tracer("github.com/evan-idocoding/clientkit/geo"),
		logger:   cfg.logger.With(slog.String("component", "geo")),
	}
	if cfg.rateLimit > 0 {
		r.limiter = rate.NewLimiter(cfg.rateLimit, cfg.burst)
	}
	if cfg.registerer != nil {
		r.metrics = newMetrics(cfg.registerer)
	}
	return r
}

// ClientIP resolves the client IP of req using the configured header rules.
//
// When trusted proxies are configured and the direct peer is not one of them, headers are
// ignored and only the remote address is considered.
func (r *Resolver) ClientIP(req Request) (string, bool) {
	if req == nil {
		return "", false
	}
	if len(r.trusted) > 0 && !isTrusted(req.RemoteAddr(), r.trusted) {
		remote := req.RemoteAddr()
		if IsValidIP(remote) {
			return remote, true
		}
		return "", false
	}
	return ResolveClientIPWithRules(req, r.headers)
}

// Lookup queries the lookup service for ip.
//
// It returns ErrNoClientIP for an empty ip, an error wrapping ErrUnexpectedStatus for a non-200
// answer, an error wrapping ErrLookupFailed when the service reports a failure, and transport
// and decode errors as they are.
func (r *Resolver) Lookup(ctx context.Context, ip string) (loc *Location, err error) {
	ctx, span := r.tracer.Start(ctx, "geo.Lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("client.address", ip)),
	)
	start := time.Now()
	defer func() {
		r.metrics.observe(outcomeOf(err), time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if ip == "" {
		return nil, ErrNoClientIP
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("geo: rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lookupURL(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build lookup request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: lookup %s: %w", ip, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_ = client.DrainAndClose(resp.Body, maxLookupBody)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body lookupResponse
	if err := client.DecodeJSONAndClose(resp.Body, maxLookupBody, &body); err != nil {
		return nil, fmt.Errorf("geo: decode lookup response: %w", err)
	}
	if body.Status != "success" {
		if body.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrLookupFailed, body.Message)
		}
		return nil, fmt.Errorf("%w: status %q", ErrLookupFailed, body.Status)
	}
	return body.location(), nil
}

// Resolve resolves the client IP of req and looks up its location.
//
// Every failure is logged and reported as nil.
func (r *Resolver) Resolve(ctx context.Context, req Request) *Location {
	ip, _ := r.ClientIP(req)
	return r.resolveIP(ctx, ip)
}

func (r *Resolver) resolveIP(ctx context.Context, ip string) *Location {
	loc, err := r.Lookup(ctx, ip)
	if err != nil {
		attrs := []any{slog.String("ip", ip), slog.Any("error", err)}
		if id, ok := httpx.RequestIDFromContext(ctx); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
		r.logger.ErrorContext(ctx, "geolocation lookup failed", attrs...)
		return nil
	}
	return loc
}

func (r *Resolver) lookupURL(ip string) string {
	return strings.ReplaceAll(r.endpoint, "{ip}", url.PathEscape(ip))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoClientIP):
		return "no_ip"
	case errors.Is(err, ErrUnexpectedStatus):
		return "bad_status"
	case errors.Is(err, ErrLookupFailed):
		return "failed"
	default:
		return "error"
	}
}
