package geo

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// Request is the part of an inbound request the client IP is resolved from.
type Request interface {
	// Header returns the value of the named header, or "" when absent.
	// Repeated headers are joined with ", ".
	Header(name string) string
	// RemoteAddr returns the address of the direct peer without a port.
	RemoteAddr() string
}

// HTTPRequest adapts an *http.Request.
func HTTPRequest(r *http.Request) Request {
	return HeaderRequest(r.Header, r.RemoteAddr)
}

// HeaderRequest adapts a header set and a peer address. remote may carry a port.
func HeaderRequest(h http.Header, remote string) Request {
	return headerRequest{h: h, remote: remote}
}

type headerRequest struct {
	h      http.Header
	remote string
}

func (r headerRequest) Header(name string) string {
	return strings.Join(r.h.Values(name), ", ")
}

func (r headerRequest) RemoteAddr() string { return stripPort(r.remote) }

// GRPCRequest adapts the incoming metadata and peer of a gRPC server context.
func GRPCRequest(ctx context.Context) Request {
	md, _ := metadata.FromIncomingContext(ctx)
	var remote string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	return grpcRequest{md: md, remote: remote}
}

type grpcRequest struct {
	md     metadata.MD
	remote string
}

func (r grpcRequest) Header(name string) string {
	return strings.Join(r.md.Get(name), ", ")
}

func (r grpcRequest) RemoteAddr() string { return stripPort(r.remote) }

func stripPort(addr string) string {
	addr = strings.TrimSpace(addr)
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().String()
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
