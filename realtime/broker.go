package realtime

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/evan-idocoding/clientkit/httpx"
)

// ErrNotConnected is returned by a Broker asked to subscribe before it is connected.
var ErrNotConnected = errors.New("realtime: broker not connected")

// Broker is one publish/subscribe connection driven by a Hook.
//
// Activate starts connecting in the background and returns immediately. Deactivate releases every
// transport resource and returns only once the connection is fully torn down; it must be safe to
// call whether or not the connection was ever confirmed.
type Broker interface {
	Activate()
	Deactivate() error
	Subscribe(destination string, onBody func(body []byte)) (BrokerSubscription, error)
}

// BrokerSubscription is a live subscription on a Broker.
type BrokerSubscription interface {
	Unsubscribe() error
}

// BrokerConfig is what a Hook hands to its BrokerFactory on every activation.
type BrokerConfig struct {
	// URL is the broker URL built by BrokerURL.
	URL string
	// ConnectHeaders are sent with the protocol-level connect frame.
	ConnectHeaders map[string]string
	// OnConnect and OnDisconnect report transport state. They may be called from any goroutine.
	OnConnect    func()
	OnDisconnect func()
	Logger       *slog.Logger
}

// BrokerFactory creates an inactive Broker.
type BrokerFactory func(cfg BrokerConfig) Broker

// BrokerURL returns baseURL with the connection identity appended as query parameters:
// Authorization ("Bearer <token>"), then X-Request-Id and TabId when non-empty.
func BrokerURL(baseURL, token, requestID, tabID string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	if strings.Contains(baseURL, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("Authorization=")
	b.WriteString(encodeComponent("Bearer " + token))
	if requestID != "" {
		b.WriteString("&" + httpx.DefaultRequestIDHeader + "=")
		b.WriteString(encodeComponent(requestID))
	}
	if tabID != "" {
		b.WriteString("&" + httpx.TabIDHeader + "=")
		b.WriteString(encodeComponent(tabID))
	}
	return b.String()
}

// encodeComponent escapes s for a query value with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
