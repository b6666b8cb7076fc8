package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestNewRequestID_IsUUIDAndDistinct(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("uuid.Parse(%q): %v", a, err)
	}
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var got string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = RequestIDFromRequest(r)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Fatalf("expected request id in context")
	}
	if rr.Header().Get(DefaultRequestIDHeader) != got {
		t.Fatalf("response header=%q, want %q", rr.Header().Get(DefaultRequestIDHeader), got)
	}
}

func TestRequestID_Incoming(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		trust    bool
		wantSame bool
	}{
		{name: "valid single value", values: []string{"abc-123"}, trust: true, wantSame: true},
		{name: "untrusted", values: []string{"abc-123"}, trust: false, wantSame: false},
		{name: "invalid characters", values: []string{"abc 123"}, trust: true, wantSame: false},
		{name: "multiple values", values: []string{"a", "b"}, trust: true, wantSame: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RequestID(WithTrustIncoming(tt.trust))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = RequestIDFromRequest(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, v := range tt.values {
				req.Header.Add(DefaultRequestIDHeader, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if same := got == tt.values[0]; same != tt.wantSame {
				t.Fatalf("got id %q, reused=%v, want reused=%v", got, same, tt.wantSame)
			}
		})
	}
}

func TestRequestID_InvalidGeneratorFallsBack(t *testing.T) {
	var got string
	h := RequestID(WithGenerator(func() string { return "not valid!" }))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = RequestIDFromRequest(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ValidRequestID(got) {
		t.Fatalf("expected a valid fallback id, got %q", got)
	}
}

func TestWithRequestID_EmptyIsNoop(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatalf("expected no request id")
	}
}
