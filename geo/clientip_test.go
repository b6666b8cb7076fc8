package geo

import (
	"net/http"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"203.0.113.7", true},
		{"999.1.1.1", true},
		{"2001:db8::1", true},
		{"::1", true},
		{"", false},
		{"unknown", false},
		{"203.0.113.7:8080", false},
		{"::ffff:10.0.0.1", false},
		{"for=192.0.2.60", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidIP(tt.in), "IsValidIP(%q)", tt.in)
	}
}

func TestResolveClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
		wantOK  bool
	}{
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.7",
			wantOK:  true,
		},
		{
			name:    "priority order",
			headers: map[string]string{"X-Real-IP": "198.51.100.1", "CF-Connecting-IP": "198.51.100.2"},
			want:    "198.51.100.1",
			wantOK:  true,
		},
		{
			name:    "invalid entry falls through to next header",
			headers: map[string]string{"X-Forwarded-For": "unknown, 203.0.113.7", "True-Client-IP": "198.51.100.9"},
			want:    "198.51.100.9",
			wantOK:  true,
		},
		{
			name:    "blank header skipped",
			headers: map[string]string{"X-Forwarded-For": "   ", "X-Cluster-Client-IP": "2001:db8::5"},
			want:    "2001:db8::5",
			wantOK:  true,
		},
		{
			name:    "forwarded header with for= is not an ip",
			headers: map[string]string{"Forwarded": "for=192.0.2.60;proto=http"},
			remote:  "192.0.2.1:443",
			want:    "192.0.2.1",
			wantOK:  true,
		},
		{
			name:   "remote fallback",
			remote: "[2001:db8::2]:443",
			want:   "2001:db8::2",
			wantOK: true,
		},
		{
			name:    "nothing valid",
			headers: map[string]string{"X-Forwarded-For": "garbage"},
			remote:  "pipe",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			got, ok := ResolveClientIP(HeaderRequest(h, tt.remote))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveClientIP_RepeatedHeaderUsesFirstValue(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Add("X-Forwarded-For", "203.0.113.1")
	h.Add("X-Forwarded-For", "203.0.113.2")
	got, ok := ResolveClientIP(HeaderRequest(h, ""))
	require.True(t, ok)
	assert.Equal(t, "203.0.113.1", got)
}

func TestResolveClientIPWithRules(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.1")
	h.Set("X-Edge-IP", "198.51.100.3")
	got, ok := ResolveClientIPWithRules(HeaderRequest(h, ""), []string{"X-Edge-IP"})
	require.True(t, ok)
	assert.Equal(t, "198.51.100.3", got)

	_, ok = ResolveClientIP(nil)
	assert.False(t, ok)
}

func TestHTTPRequest_StripsPort(t *testing.T) {
	t.Parallel()

	r, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	require.NoError(t, err)
	r.RemoteAddr = "192.0.2.10:52000"
	assert.Equal(t, "192.0.2.10", HTTPRequest(r).RemoteAddr())
}

func TestParseTrustedProxies(t *testing.T) {
	t.Parallel()

	got, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.1 ", "", "::ffff:172.16.0.1", "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.1/32"),
		netip.MustParsePrefix("172.16.0.1/32"),
	}, got)

	got, err = ParseTrustedProxies(nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_ClientIPTrustedProxies(t *testing.T) {
	t.Parallel()

	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	r := NewResolver(WithTrustedProxies(trusted))

	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.7")

	got, ok := r.ClientIP(HeaderRequest(h, "10.1.2.3:80"))
	require.True(t, ok)
	assert.Equal(t, "203.0.113.7", got, "trusted peer: headers honored")

	got, ok = r.ClientIP(HeaderRequest(h, "198.51.100.20:80"))
	require.True(t, ok)
	assert.Equal(t, "198.51.100.20", got, "untrusted peer: headers ignored")
}
