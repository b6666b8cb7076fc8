package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/evan-idocoding/clientkit/httpx"
	"github.com/evan-idocoding/clientkit/httpx/client"
	"github.com/evan-idocoding/clientkit/tokenstore"
)

// maxErrorBody bounds how much of a failed response body is buffered into ResponseError.
const maxErrorBody = 1 << 20

// Client is an HTTP client with the request and response interceptors described by Config.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	logger  *slog.Logger

	xsrf        bool
	store       tokenstore.Store
	navigator   Navigator
	redirectURL string
	redirectOn  map[int]struct{}
	excluded    map[string]struct{}
}

// New builds a Client from cfg. Extra options are passed to client.New after the ones derived
// from cfg, so they can replace the transport, timeout or cookie jar.
//
// Missing fields resolve to their defaults; New fails only when BaseURL is set but does not parse.
func New(cfg Config, opts ...client.Option) (*Client, error) {
	c := &Client{
		logger:      cfg.Logger,
		xsrf:        cfg.EnableXSRFToken,
		store:       cfg.Store,
		navigator:   cfg.Navigator,
		redirectURL: cfg.RedirectURL,
		redirectOn:  make(map[int]struct{}),
		excluded:    make(map[string]struct{}, len(cfg.ExcludedRoutes)),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("component", "apiclient"))
	if c.store == nil {
		c.store = tokenstore.NewMemory()
	}
	if c.navigator == nil {
		c.navigator = logNavigator{logger: c.logger}
	}
	if c.redirectURL == "" {
		c.redirectURL = DefaultRedirectURL
	}
	codes := cfg.RedirectOnErrors
	if len(codes) == 0 {
		codes = DefaultRedirectOnErrors()
	}
	for _, code := range codes {
		c.redirectOn[code] = struct{}{}
	}
	for _, route := range cfg.ExcludedRoutes {
		c.excluded[route] = struct{}{}
	}

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("apiclient: parse base url: %w", err)
		}
		c.baseURL = u
	}

	base := []client.Option{client.WithInterceptors(interceptors(cfg)...)}
	if cfg.EnableCookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", err)
		}
		base = append(base, client.WithCookieJar(jar))
	}
	c.http = client.New(append(base, opts...)...)
	return c, nil
}

func interceptors(cfg Config) []client.Middleware {
	var mws []client.Middleware
	if cfg.EnableRequestID {
		gen := cfg.RequestIDFunc
		if gen == nil && cfg.CustomRequestID != "" {
			id := cfg.CustomRequestID
			gen = func() (string, error) { return id, nil }
		}
		mws = append(mws, client.RequestID(gen))
	}
	if cfg.EnableTabID {
		name := cfg.WindowName
		if cfg.CustomTabID != "" {
			tab := cfg.CustomTabID
			name = func() string { return tab }
		}
		mws = append(mws, client.TabID(name))
	}
	if cfg.EnableXSRFToken && cfg.XSRFTokenFunc != nil {
		mws = append(mws, client.XSRFToken(cfg.XSRFTokenFunc))
	}
	if cfg.EnableBearerToken {
		mws = append(mws, client.BearerToken(cfg.BearerToken))
	}
	return append(mws,
		client.SetDefaultHeader("Content-Type", "application/json"),
		client.SetDefaultHeader("Accept", "application/json"),
	)
}

// HTTPClient returns the underlying *http.Client. Requests sent through it directly skip the
// response interceptor.
func (c *Client) HTTPClient() *http.Client { return c.http }

type routeKey struct{}

// NewRequest builds a request for path, resolved against the base URL.
// path is remembered as the route used for ExcludedRoutes matching.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(context.WithValue(ctx, routeKey{}, path), method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: new request: %w", err)
	}
	return req, nil
}

func (c *Client) resolve(path string) (string, error) {
	if c.baseURL == nil {
		return path, nil
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("apiclient: parse path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	// Join like axios: "<base>/<path>" regardless of trailing or leading slashes.
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// Do sends req and applies the response interceptor.
//
// A 2xx response is returned as is. Any other status is returned as a *ResponseError (the
// response body is buffered into it and closed). Interceptor failures are returned as
// *client.InterceptorError. On every failure with a response whose status is listed in
// RedirectOnErrors and whose route is not excluded, the Navigator is invoked before the error
// is returned.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		var ie *client.InterceptorError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, err
	}

	c.persistXSRF(resp)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	rerr := newResponseError(req, resp)
	if c.shouldRedirect(rerr.StatusCode, rerr.Route) {
		c.logger.Debug("redirecting after failed request",
			slog.Int("status", rerr.StatusCode),
			slog.String("route", rerr.Route),
			slog.String("redirect_url", c.redirectURL),
		)
		c.navigator.Navigate(c.redirectURL)
	}
	return nil, rerr
}

func (c *Client) persistXSRF(resp *http.Response) {
	if !c.xsrf || resp == nil {
		return
	}
	tok := resp.Header.Get(httpx.XSRFResponseHeader)
	if tok == "" {
		return
	}
	if err := c.store.Set(tokenstore.XSRFKey, tok); err != nil {
		c.logger.Warn("persist xsrf token", slog.Any("error", err))
	}
}

func (c *Client) shouldRedirect(status int, route string) bool {
	if _, ok := c.redirectOn[status]; !ok {
		return false
	}
	_, excluded := c.excluded[route]
	return !excluded
}

// Get sends a GET request for path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

// Delete sends a DELETE request for path.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, path, nil)
}

// Post sends body JSON-encoded. A nil body sends no content.
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

// Put sends body JSON-encoded.
func (c *Client) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, path, body)
}

// Patch sends body JSON-encoded.
func (c *Client) Patch(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPatch, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := c.NewRequest(ctx, method, path, r)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// DecodeJSON decodes a JSON response body into v and closes it.
func DecodeJSON(resp *http.Response, v any) error {
	if resp == nil {
		return errors.New("apiclient: nil response")
	}
	return client.DecodeJSONAndClose(resp.Body, maxErrorBody*8, v)
}
