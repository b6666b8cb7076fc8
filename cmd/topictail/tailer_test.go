package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evan-idocoding/clientkit/realtime"
)

type stubSub struct{ n int }

func (s *stubSub) Unsubscribe() error { s.n++; return nil }

type stubBroker struct {
	cfg  realtime.BrokerConfig
	mu   sync.Mutex
	subs map[string]*stubSub
}

func (b *stubBroker) Activate()         {}
func (b *stubBroker) Deactivate() error { return nil }

func (b *stubBroker) Subscribe(dest string, _ func([]byte)) (realtime.BrokerSubscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &stubSub{}
	b.subs[dest] = s
	return s, nil
}

func newStubHook(t *testing.T) (*realtime.Hook, *stubBroker, chan realtime.State) {
	t.Helper()
	states := make(chan realtime.State, 4)
	b := &stubBroker{subs: map[string]*stubSub{}}
	h := realtime.New(realtime.DefaultParams("ws://broker/ws", "t"),
		realtime.WithBrokerFactory(func(cfg realtime.BrokerConfig) realtime.Broker {
			b.cfg = cfg
			return b
		}),
		realtime.WithStateListener(func(s realtime.State) { states <- s }),
	)
	t.Cleanup(func() { _ = h.Close() })
	return h, b, states
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestTailer_SubscribesOnConnectAndStopsOnLoss(t *testing.T) {
	h, b, states := newStubHook(t)
	tl := newTailer(h, []string{"/topic/a", "/topic/b"}, discard())

	errc := make(chan error, 1)
	go func() { errc <- tl.run(context.Background(), states, 5*time.Second) }()

	b.cfg.OnConnect()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.subs) == 2
	}, 2*time.Second, 5*time.Millisecond)

	b.cfg.OnDisconnect()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, errConnectionLost)
	case <-time.After(2 * time.Second):
		t.Fatal("tailer did not stop")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, 1, b.subs["/topic/a"].n)
	assert.Equal(t, 1, b.subs["/topic/b"].n)
}

func TestTailer_ConnectTimeout(t *testing.T) {
	h, _, states := newStubHook(t)
	tl := newTailer(h, []string{"/topic/a"}, discard())

	err := tl.run(context.Background(), states, 20*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestTailer_ContextCancel(t *testing.T) {
	h, _, states := newStubHook(t)
	tl := newTailer(h, []string{"/topic/a"}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, tl.run(ctx, states, time.Second))
}

func TestOpsRouter_ReadyzFollowsConnection(t *testing.T) {
	h, b, _ := newStubHook(t)
	r := newOpsRouter(h, new(slog.LevelVar))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	b.cfg.OnConnect()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
