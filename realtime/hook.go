package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evan-idocoding/clientkit/rt/safego"
)

// ErrClosed is returned by Update after Close.
var ErrClosed = errors.New("realtime: hook closed")

// State is the observable connection state of a Hook.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Params are the inputs that define a connection. Changing any of them reconnects.
type Params struct {
	BaseURL string
	Token   string
	// EnableRequestID appends a fresh X-Request-Id to the broker URL on every activation.
	EnableRequestID bool
	// EnableTabID appends the window name as TabId to the broker URL.
	EnableTabID bool
}

// DefaultParams returns Params with both identity flags enabled.
func DefaultParams(baseURL, token string) Params {
	return Params{BaseURL: baseURL, Token: token, EnableRequestID: true, EnableTabID: true}
}

// Hook owns at most one Broker at a time and ties its lifetime to the owner's: New activates,
// Update reactivates when Params change, and Close tears down.
//
// A Hook is safe for concurrent use.
type Hook struct {
	factory      BrokerFactory
	logger       *slog.Logger
	newRequestID func() string
	windowName   func() string
	onState      func(State)
	onMsgErr     func(topic string, err error)

	// lifecycle serializes activation and teardown.
	lifecycle sync.Mutex

	mu     sync.Mutex
	params Params
	broker Broker
	gen    uint64
	state  State
	closed bool
}

// New creates a Hook and activates it with p.
func New(p Params, opts ...Option) *Hook {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	h := &Hook{
		factory:      cfg.factory,
		logger:       cfg.logger.With(slog.String("component", "realtime")),
		newRequestID: cfg.newRequestID,
		windowName:   cfg.windowName,
		onState:      cfg.onState,
		onMsgErr:     cfg.onMessageError,
	}
	if h.factory == nil {
		h.factory = NewSTOMPBroker()
	}

	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	h.activate(p)
	return h
}

// State returns the current connection state.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Connected reports whether the broker has confirmed the connection.
func (h *Hook) Connected() bool { return h.State() == Connected }

// Params returns the parameters of the active connection.
func (h *Hook) Params() Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params
}

// Update reconnects with p when p differs from the active Params. The current broker is fully
// torn down before the new one is activated.
func (h *Hook) Update(p Params) error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	closed, same := h.closed, h.params == p
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if same {
		return nil
	}
	h.teardown()
	h.activate(p)
	return nil
}

// Close deactivates the broker. It is idempotent; only the first call tears down.
func (h *Hook) Close() error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	return h.teardown()
}

// activate must be called with lifecycle held.
func (h *Hook) activate(p Params) {
	var requestID, tabID string
	if p.EnableRequestID {
		requestID = h.newRequestID()
	}
	if p.EnableTabID {
		tabID = h.windowName()
	}

	h.mu.Lock()
	h.gen++
	gen := h.gen
	h.params = p
	h.mu.Unlock()

	b := h.factory(BrokerConfig{
		URL:            BrokerURL(p.BaseURL, p.Token, requestID, tabID),
		ConnectHeaders: map[string]string{"Authorization": "Bearer " + p.Token},
		OnConnect:      func() { h.transition(gen, Connected) },
		OnDisconnect:   func() { h.transition(gen, Disconnected) },
		Logger:         h.logger,
	})

	h.mu.Lock()
	h.broker = b
	h.mu.Unlock()

	h.logger.Debug("activating broker", slog.Uint64("generation", gen))
	b.Activate()
}

// teardown must be called with lifecycle held.
func (h *Hook) teardown() error {
	h.mu.Lock()
	b := h.broker
	h.broker = nil
	// Invalidate callbacks from the broker being torn down.
	h.gen++
	h.mu.Unlock()

	var err error
	if b != nil {
		if err = b.Deactivate(); err != nil {
			h.logger.Warn("deactivate broker", slog.Any("error", err))
		}
	}
	h.setState(Disconnected)
	return err
}

func (h *Hook) transition(gen uint64, s State) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.setState(s)
}

func (h *Hook) setState(s State) {
	h.mu.Lock()
	changed := h.state != s
	h.state = s
	h.mu.Unlock()

	if !changed {
		return
	}
	h.logger.Info("connection state changed", slog.String("state", s.String()))
	if h.onState != nil {
		h.onState(s)
	}
}

// Subscription is a handle for one topic subscription. Release it with Unsubscribe.
type Subscription struct {
	topic string
	sub   BrokerSubscription
	once  sync.Once
	err   error
}

// Topic returns the subscribed destination.
func (s *Subscription) Topic() string { return s.topic }

// Unsubscribe releases the subscription. Later calls return the first result.
func (s *Subscription) Unsubscribe() error {
	s.once.Do(func() { s.err = s.sub.Unsubscribe() })
	return s.err
}

// Subscribe subscribes to topic when connected and returns nil otherwise.
//
// Each message body is decoded as JSON before onMessage is called. A body that does not decode
// is reported to the message error handler and onMessage is not called for it.
func (h *Hook) Subscribe(topic string, onMessage func(msg any)) *Subscription {
	if onMessage == nil {
		return nil
	}
	return h.subscribe(topic, func(body []byte) error {
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("realtime: decode message on %s: %w", topic, err)
		}
		onMessage(v)
		return nil
	})
}

// SubscribeJSON is Subscribe with the body decoded into T.
func SubscribeJSON[T any](h *Hook, topic string, onMessage func(msg T)) *Subscription {
	if onMessage == nil {
		return nil
	}
	return h.subscribe(topic, func(body []byte) error {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("realtime: decode message on %s: %w", topic, err)
		}
		onMessage(v)
		return nil
	})
}

// Unsubscribe releases sub. A nil sub is a no-op.
func (h *Hook) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		h.logger.Debug("unsubscribe", slog.String("topic", sub.topic), slog.Any("error", err))
	}
}

func (h *Hook) subscribe(topic string, handle func(body []byte) error) *Subscription {
	h.mu.Lock()
	b, state := h.broker, h.state
	h.mu.Unlock()
	if b == nil || state != Connected {
		return nil
	}

	opts := []safego.Option{
		safego.WithName("realtime.message"),
		safego.WithTag("topic", topic),
		safego.WithLogger(h.logger),
		safego.WithErrorHandler(func(_ context.Context, info safego.ErrorInfo) {
			h.messageError(topic, info.Err)
		}),
		safego.WithPanicHandler(func(_ context.Context, info safego.PanicInfo) {
			h.messageError(topic, fmt.Errorf("realtime: message handler panicked: %v", info.Value))
		}),
	}
	bs, err := b.Subscribe(topic, func(body []byte) {
		safego.RunErr(context.Background(), func(context.Context) error {
			return handle(body)
		}, opts...)
	})
	if err != nil {
		h.logger.Warn("subscribe", slog.String("topic", topic), slog.Any("error", err))
		return nil
	}
	return &Subscription{topic: topic, sub: bs}
}

func (h *Hook) messageError(topic string, err error) {
	if h.onMsgErr != nil {
		h.onMsgErr(topic, err)
		return
	}
	h.logger.Error("message handling failed", slog.String("topic", topic), slog.Any("error", err))
}
