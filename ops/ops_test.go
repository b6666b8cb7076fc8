package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	w := serve(t, HealthzHandler(), http.MethodGet, "http://example/healthz")
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}

	w = serve(t, HealthzHandler(), http.MethodGet, "http://example/healthz?format=json")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type=%q, want application/json", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ok, _ := got["ok"].(bool); !ok {
		t.Fatalf("json ok=%v, want true", got["ok"])
	}

	w = serve(t, HealthzHandler(), http.MethodPost, "http://example/healthz")
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET, HEAD" {
		t.Fatalf("got %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}
}

func TestReadyz(t *testing.T) {
	connected := false
	h := ReadyzHandler([]ReadyCheck{
		StateCheck("broker", func() bool { return connected }),
		{Name: "lookup", Func: func(context.Context) error { return nil }},
	})

	w := serve(t, h, http.MethodGet, "http://example/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", w.Code)
	}
	if body := w.Body.String(); body != "fail broker: not ready\n" {
		t.Fatalf("body=%q", body)
	}

	connected = true
	w = serve(t, h, http.MethodGet, "http://example/readyz?format=json")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var rep ReadyzReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !rep.OK || len(rep.Checks) != 2 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestRunReadyzChecks_TimeoutAndPanic(t *testing.T) {
	rep := RunReadyzChecks(context.Background(), []ReadyCheck{
		{Name: "slow", Timeout: 10 * time.Millisecond, Func: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
		{Name: "boom", Func: func(context.Context) error { panic("kaput") }},
		{Name: "err", Func: func(context.Context) error { return errors.New("down") }},
	})
	if rep.OK {
		t.Fatalf("expected failure")
	}
	if c := rep.Checks[0]; !c.TimedOut || c.OK {
		t.Fatalf("slow=%+v", c)
	}
	if c := rep.Checks[1]; c.Error != "panic: kaput" {
		t.Fatalf("boom=%+v", c)
	}
	if c := rep.Checks[2]; c.Error != "down" {
		t.Fatalf("err=%+v", c)
	}
}

func TestLogLevelHandler(t *testing.T) {
	var lv slog.LevelVar
	h := LogLevelHandler(&lv)

	if w := serve(t, h, http.MethodGet, "http://example/log-level"); w.Body.String() != "level: info\n" {
		t.Fatalf("body=%q", w.Body.String())
	}
	if w := serve(t, h, http.MethodPost, "http://example/log-level?level=WARNING"); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if lv.Level() != slog.LevelWarn {
		t.Fatalf("level=%v, want warn", lv.Level())
	}
	if w := serve(t, h, http.MethodPost, "http://example/log-level?level=loud"); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if w := serve(t, h, http.MethodPost, "http://example/log-level"); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if w := serve(t, h, http.MethodDelete, "http://example/log-level"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want 405", w.Code)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"Info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"err":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Fatalf("expected error")
	}
}
