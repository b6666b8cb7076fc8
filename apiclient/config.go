package apiclient

import (
	"context"
	"log/slog"

	"github.com/evan-idocoding/clientkit/tokenstore"
)

// DefaultRedirectURL is the navigation target used when Config.RedirectURL is empty.
const DefaultRedirectURL = "/login"

// DefaultRedirectOnErrors returns the status codes that trigger a redirect when
// Config.RedirectOnErrors is empty.
func DefaultRedirectOnErrors() []int {
	return []int{401, 403, 429}
}

// Config controls a Client. Every field is optional.
//
// New copies the Config; later changes by the caller do not affect the Client.
type Config struct {
	// BaseURL is resolved against relative request paths. Empty means paths are used as-is.
	BaseURL string

	// EnableCookies attaches an in-memory cookie jar so cookies are sent with requests.
	EnableCookies bool

	// EnableBearerToken sends "Authorization: Bearer <BearerToken>" when BearerToken is set.
	EnableBearerToken bool
	BearerToken       string

	// EnableXSRFToken turns on both the outgoing X-XSRF-TOKEN header (when XSRFTokenFunc is set)
	// and persisting refreshed tokens from the "xsrf-token" response header into Store.
	EnableXSRFToken bool
	XSRFTokenFunc   func(ctx context.Context) (string, error)

	// EnableTabID sends the TabId header: CustomTabID, or WindowName() when CustomTabID is empty.
	EnableTabID bool
	CustomTabID string

	// EnableRequestID sends X-Request-Id: RequestIDFunc, else CustomRequestID, else a fresh UUID.
	EnableRequestID bool
	CustomRequestID string
	RequestIDFunc   func() (string, error)

	// ExcludedRoutes never trigger a redirect. Matching is exact against the request path as passed
	// to NewRequest (or the full request URL for requests built elsewhere).
	ExcludedRoutes []string
	// RedirectOnErrors lists the status codes that trigger a redirect. Default: 401, 403, 429.
	RedirectOnErrors []int
	// RedirectURL is handed to Navigator. Default: "/login".
	RedirectURL string

	// Store receives refreshed XSRF tokens under tokenstore.XSRFKey. Default: tokenstore.NewMemory().
	Store tokenstore.Store
	// Navigator performs the redirect. Default: a navigator that only logs.
	Navigator Navigator
	// WindowName supplies the default tab id. Default: httpx.WindowName.
	WindowName func() string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Navigator moves the user agent to another page.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

type logNavigator struct {
	logger *slog.Logger
}

func (n logNavigator) Navigate(url string) {
	n.logger.Info("redirect requested", slog.String("redirect_url", url))
}

// StoredXSRFToken returns a token lookup reading tokenstore.XSRFKey from store.
// It pairs with Config.XSRFTokenFunc so the token persisted from the last response is sent back.
func StoredXSRFToken(store tokenstore.Store) func(ctx context.Context) (string, error) {
	return func(context.Context) (string, error) {
		if store == nil {
			return "", nil
		}
		v, _ := store.Get(tokenstore.XSRFKey)
		return v, nil
	}
}
