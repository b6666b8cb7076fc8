package httpx

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	var got time.Time
	var ok bool
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = r.Context().Deadline()
	}), Timeout(time.Minute))

	start := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if got.Before(start.Add(59*time.Second)) || got.After(start.Add(61*time.Second)) {
		t.Fatalf("deadline %v not about a minute from %v", got, start)
	}
}

func TestTimeout_KeepsEarlierDeadline(t *testing.T) {
	parentCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want, _ := parentCtx.Deadline()

	var got time.Time
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Deadline()
	}), Timeout(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parentCtx)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !got.Equal(want) {
		t.Fatalf("deadline=%v, want %v", got, want)
	}
}

func TestTimeout_ZeroDisables(t *testing.T) {
	var ok bool
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}), Timeout(0))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Fatalf("expected no deadline")
	}
}

func TestTimeout_LogsExpiredRequest(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), Timeout(10*time.Millisecond, WithTimeoutLogger(l)))

	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	req = req.WithContext(WithRequestID(req.Context(), "rid-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"request deadline exceeded", "path=/slow", "request_id=rid-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %q", out, want)
		}
	}
}
