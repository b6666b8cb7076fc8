package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"github.com/evan-idocoding/clientkit/rt/safego"
)

const (
	DefaultHeartBeat         = 10 * time.Second
	DefaultDisconnectTimeout = 5 * time.Second
	defaultHandshakeTimeout  = 10 * time.Second
)

// ErrDisconnectTimeout is returned by Deactivate when the broker did not acknowledge the
// disconnect in time. The socket is closed regardless.
var ErrDisconnectTimeout = errors.New("realtime: stomp disconnect timed out")

type stompOptions struct {
	dialer            *websocket.Dialer
	heartBeatSend     time.Duration
	heartBeatRecv     time.Duration
	disconnectTimeout time.Duration
	host              string
}

// STOMPOption configures NewSTOMPBroker.
type STOMPOption func(*stompOptions)

// WithDialer sets the websocket dialer. Its Subprotocols are replaced with the STOMP ones.
func WithDialer(d *websocket.Dialer) STOMPOption {
	return func(o *stompOptions) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithHeartBeat sets the heart-beat intervals offered to the broker. Zero disables a direction.
func WithHeartBeat(send, recv time.Duration) STOMPOption {
	return func(o *stompOptions) {
		o.heartBeatSend = send
		o.heartBeatRecv = recv
	}
}

// WithDisconnectTimeout bounds how long Deactivate waits for the DISCONNECT receipt.
func WithDisconnectTimeout(d time.Duration) STOMPOption {
	return func(o *stompOptions) {
		if d > 0 {
			o.disconnectTimeout = d
		}
	}
}

// WithHost sets the STOMP host header. Defaults to the host of the broker URL.
func WithHost(host string) STOMPOption {
	return func(o *stompOptions) { o.host = host }
}

// NewSTOMPBroker returns a BrokerFactory speaking STOMP over websocket.
//
// Each Broker dials once per Activate and does not reconnect: when the socket ends, OnDisconnect
// is reported and the owner decides what to do next.
func NewSTOMPBroker(opts ...STOMPOption) BrokerFactory {
	o := stompOptions{
		heartBeatSend:     DefaultHeartBeat,
		heartBeatRecv:     DefaultHeartBeat,
		disconnectTimeout: DefaultDisconnectTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	d := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	if o.dialer != nil {
		d = *o.dialer
	}
	d.Subprotocols = stompSubprotocols
	o.dialer = &d

	return func(cfg BrokerConfig) Broker {
		l := cfg.Logger
		if l == nil {
			l = slog.Default()
		}
		return &stompBroker{
			cfg:  cfg,
			opts: o,
			log:  l.With(slog.String("transport", "stomp")),
		}
	}
}

type stompBroker struct {
	cfg  BrokerConfig
	opts stompOptions
	log  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	ws     *wsConn
	conn   *stomp.Conn
}

func (b *stompBroker) Activate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.cancel, b.done = cancel, done

	safego.Go(ctx, b.run,
		safego.WithName("realtime.stomp"),
		safego.WithLogger(b.log),
		safego.WithFinally(func() { close(done) }),
	)
}

func (b *stompBroker) run(ctx context.Context) {
	ws, resp, err := b.opts.dialer.DialContext(ctx, b.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() == nil {
			b.log.Warn("dial broker", slog.Any("error", err))
			b.notify(b.cfg.OnDisconnect)
		}
		return
	}
	c := newWSConn(ws)

	b.mu.Lock()
	if ctx.Err() != nil {
		b.mu.Unlock()
		_ = c.Close()
		return
	}
	b.ws = c
	b.mu.Unlock()

	conn, err := stomp.Connect(c, b.connectOptions()...)
	if err != nil {
		_ = c.Close()
		if ctx.Err() == nil {
			b.log.Warn("stomp connect", slog.Any("error", err))
			b.notify(b.cfg.OnDisconnect)
		}
		return
	}

	b.mu.Lock()
	if ctx.Err() != nil {
		b.mu.Unlock()
		_ = conn.MustDisconnect()
		_ = c.Close()
		return
	}
	b.conn = conn
	b.mu.Unlock()

	b.log.Debug("broker connected", slog.String("version", string(conn.Version())))
	b.notify(b.cfg.OnConnect)

	select {
	case <-c.Done():
		if ctx.Err() != nil {
			return
		}
		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		b.log.Info("broker connection lost")
		b.notify(b.cfg.OnDisconnect)
	case <-ctx.Done():
	}
}

func (b *stompBroker) connectOptions() []func(*stomp.Conn) error {
	host := b.opts.host
	if host == "" {
		if u, err := url.Parse(b.cfg.URL); err == nil {
			host = u.Hostname()
		}
	}
	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(b.opts.heartBeatSend, b.opts.heartBeatRecv),
	}
	if host != "" {
		opts = append(opts, stomp.ConnOpt.Host(host))
	}
	for k, v := range b.cfg.ConnectHeaders {
		opts = append(opts, stomp.ConnOpt.Header(k, v))
	}
	return opts
}

func (b *stompBroker) notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// Deactivate stops a pending dial, disconnects gracefully when connected, closes the socket and
// waits for the connection goroutine to exit.
func (b *stompBroker) Deactivate() error {
	b.mu.Lock()
	if b.done == nil {
		b.mu.Unlock()
		return nil
	}
	b.cancel()
	conn, ws, done := b.conn, b.ws, b.done
	b.conn, b.ws = nil, nil
	b.mu.Unlock()

	var err error
	if conn != nil {
		err = b.disconnect(conn)
	}
	if ws != nil {
		_ = ws.Close()
	}
	<-done
	return err
}

func (b *stompBroker) disconnect(conn *stomp.Conn) error {
	errc := make(chan error, 1)
	safego.Go(context.Background(), func(context.Context) {
		errc <- conn.Disconnect()
	}, safego.WithName("realtime.stomp.disconnect"), safego.WithLogger(b.log))

	t := time.NewTimer(b.opts.disconnectTimeout)
	defer t.Stop()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("realtime: stomp disconnect: %w", err)
		}
		return nil
	case <-t.C:
		return ErrDisconnectTimeout
	}
}

func (b *stompBroker) Subscribe(destination string, onBody func(body []byte)) (BrokerSubscription, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	sub, err := conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("realtime: subscribe %s: %w", destination, err)
	}
	s := &stompSubscription{sub: sub, done: make(chan struct{})}
	safego.Go(context.Background(), func(context.Context) {
		for msg := range sub.C {
			if msg.Err != nil {
				b.log.Debug("subscription error", slog.String("destination", destination), slog.Any("error", msg.Err))
				continue
			}
			onBody(msg.Body)
		}
	}, safego.WithName("realtime.subscription"),
		safego.WithTag("destination", destination),
		safego.WithLogger(b.log),
		safego.WithFinally(func() { close(s.done) }),
	)
	return s, nil
}

type stompSubscription struct {
	sub  *stomp.Subscription
	done chan struct{}
}

func (s *stompSubscription) Unsubscribe() error {
	select {
	case <-s.done:
		// Connection already gone; nothing to release on the broker.
		return nil
	default:
	}
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("realtime: unsubscribe: %w", err)
	}
	return nil
}
