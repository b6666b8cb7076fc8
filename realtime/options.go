package realtime

import (
	"log/slog"

	"github.com/evan-idocoding/clientkit/httpx"
)

type config struct {
	factory        BrokerFactory
	logger         *slog.Logger
	newRequestID   func() string
	windowName     func() string
	onState        func(State)
	onMessageError func(topic string, err error)
}

// Option configures a Hook.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger:       slog.Default(),
		newRequestID: httpx.NewRequestID,
		windowName:   httpx.WindowName,
	}
}

// WithBrokerFactory sets how brokers are created. Defaults to NewSTOMPBroker().
func WithBrokerFactory(f BrokerFactory) Option {
	return func(c *config) { c.factory = f }
}

// WithLogger sets the logger for connection and message events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateListener registers fn to be called on every state change.
// fn must not call Update or Close.
func WithStateListener(fn func(State)) Option {
	return func(c *config) { c.onState = fn }
}

// WithMessageErrorHandler sets the handler for messages that fail to decode or whose callback
// panics. Without one, failures are logged.
func WithMessageErrorHandler(fn func(topic string, err error)) Option {
	return func(c *config) { c.onMessageError = fn }
}

// WithRequestIDFunc sets the request id generator used on each activation.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// WithWindowName sets the source of the TabId value.
func WithWindowName(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.windowName = fn
		}
	}
}
