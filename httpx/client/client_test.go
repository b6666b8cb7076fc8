package client

import (
	"net/http"
	"net/url"
	"reflect"
	"testing"
	"time"
)

type staticStatusRT struct {
	status int
	last   *http.Request
}

func (rt *staticStatusRT) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.last = r
	return &http.Response{StatusCode: rt.status, Body: http.NoBody, Request: r}, nil
}

func mustRequest(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", rawURL, err)
	}
	return &http.Request{Method: http.MethodGet, URL: u, Header: make(http.Header)}
}

func recordOrder(got *[]string, name string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			*got = append(*got, name)
			return next.RoundTrip(r)
		})
	}
}

func TestNew_DefaultTransportIsCloned(t *testing.T) {
	c := New()
	dt, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		t.Skip("http.DefaultTransport is not *http.Transport")
	}
	tp, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tp == dt {
		t.Fatalf("expected cloned transport, got http.DefaultTransport")
	}
}

func TestNew_Options(t *testing.T) {
	in := &http.Transport{MaxIdleConns: 123}
	c := New(nil, WithTimeout(123*time.Millisecond), WithTransport(in))
	if c.Timeout != 123*time.Millisecond {
		t.Fatalf("got timeout %v", c.Timeout)
	}
	tp, ok := c.Transport.(*http.Transport)
	if !ok || tp == in || tp.MaxIdleConns != 123 {
		t.Fatalf("expected a clone of the provided transport, got %#v", c.Transport)
	}

	rt := &staticStatusRT{status: 204}
	c = New(WithTransport(in), WithRoundTripper(rt))
	if c.Transport != rt {
		t.Fatalf("expected WithRoundTripper to take precedence")
	}
}

func TestNew_InterceptorsRunBeforeMiddlewares(t *testing.T) {
	var got []string
	c := New(
		WithRoundTripper(&staticStatusRT{status: 200}),
		WithMiddlewares(recordOrder(&got, "mw1")),
		WithInterceptors(recordOrder(&got, "icp1"), nil),
		WithMiddlewares(nil, recordOrder(&got, "mw2")),
		WithInterceptors(recordOrder(&got, "icp2")),
	)

	if _, err := c.Transport.RoundTrip(mustRequest(t, "http://example.com")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []string{"icp1", "icp2", "mw1", "mw2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestChain_NilBaseUsesClonedDefault(t *testing.T) {
	rt := Chain(nil)
	if rt == nil {
		t.Fatalf("expected non-nil RoundTripper")
	}
	if rt == http.DefaultTransport {
		t.Fatalf("expected a clone of http.DefaultTransport")
	}
}
