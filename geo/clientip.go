package geo

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

// DefaultHeaderRules lists the proxy headers consulted for the client IP, highest priority first.
var DefaultHeaderRules = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"Fastly-Client-IP",
	"True-Client-IP",
	"X-Client-IP",
	"X-Cluster-Client-IP",
	"Forwarded",
}

var (
	ipv4Pattern = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)
	ipv6Pattern = regexp.MustCompile(`^[a-fA-F0-9:]+$`)
)

// IsValidIP reports whether s looks like an IP address.
//
// The check is a format check only: "999.1.1.1" and ":::" pass. Use net/netip when the value
// must be routable.
func IsValidIP(s string) bool {
	if s == "" {
		return false
	}
	return ipv4Pattern.MatchString(s) || ipv6Pattern.MatchString(s)
}

// ResolveClientIP resolves the client IP of req using DefaultHeaderRules.
func ResolveClientIP(req Request) (string, bool) {
	return ResolveClientIPWithRules(req, DefaultHeaderRules)
}

// ResolveClientIPWithRules resolves the client IP of req.
//
// Headers are consulted in order. For the first header whose value is non-blank, the first
// comma-separated entry is taken; if it is not a valid IP the next header is tried. When no header
// yields an IP, the remote address is used if valid.
func ResolveClientIPWithRules(req Request, headers []string) (string, bool) {
	if req == nil {
		return "", false
	}
	for _, h := range headers {
		v := strings.TrimSpace(req.Header(h))
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := strings.TrimSpace(first); IsValidIP(ip) {
			return ip, true
		}
	}
	if remote := req.RemoteAddr(); IsValidIP(remote) {
		return remote, true
	}
	return "", false
}

// ParseTrustedProxies parses CIDRs or single IPs. Single IPs become /32 or /128 prefixes.
//
// It returns the successfully parsed prefixes and an error naming the invalid entries.
// Blank entries are ignored.
func ParseTrustedProxies(cidrs []string) ([]netip.Prefix, error) {
	if len(cidrs) == 0 {
		return nil, nil
	}
	out := make([]netip.Prefix, 0, len(cidrs))
	var invalid []string
	for _, raw := range cidrs {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%q", raw))
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	if len(invalid) > 0 {
		return out, fmt.Errorf("geo: invalid trusted proxy entries: %s", strings.Join(invalid, ", "))
	}
	return out, nil
}

func isTrusted(remote string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(remote)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
