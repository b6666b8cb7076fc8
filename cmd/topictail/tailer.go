package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evan-idocoding/clientkit/realtime"
)

// tailer subscribes to its topics once the hook connects and logs each message.
type tailer struct {
	hook   *realtime.Hook
	topics []string
	log    *slog.Logger
	subs   []*realtime.Subscription
}

func newTailer(hook *realtime.Hook, topics []string, log *slog.Logger) *tailer {
	return &tailer{hook: hook, topics: topics, log: log}
}

// run waits for state changes until ctx is done. It returns errConnectionLost when the broker
// disconnects after connecting, and an error when no connection is made within connectTimeout.
func (t *tailer) run(ctx context.Context, states <-chan realtime.State, connectTimeout time.Duration) error {
	defer t.unsubscribe()

	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()
	connected := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if !connected {
				return fmt.Errorf("not connected after %s", connectTimeout)
			}
		case s := <-states:
			switch s {
			case realtime.Connected:
				connected = true
				t.subscribe()
			case realtime.Disconnected:
				if connected {
					return errConnectionLost
				}
				return fmt.Errorf("connect to broker failed")
			}
		}
	}
}

func (t *tailer) subscribe() {
	for _, topic := range t.topics {
		sub := t.hook.Subscribe(topic, func(msg any) {
			t.log.Info("message", slog.String("topic", topic), slog.Any("body", msg))
		})
		if sub == nil {
			t.log.Warn("subscribe skipped", slog.String("topic", topic))
			continue
		}
		t.subs = append(t.subs, sub)
	}
	t.log.Info("subscribed", slog.Int("topics", len(t.subs)))
}

func (t *tailer) unsubscribe() {
	for _, sub := range t.subs {
		t.hook.Unsubscribe(sub)
	}
	t.subs = nil
}
