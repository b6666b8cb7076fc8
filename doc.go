// Package clientkit is a toolkit for talking to an application backend from Go.
//
// It is organized in subpackages:
//
//   - httpx/client: an *http.Client factory with request interceptors (identity headers,
//     bearer tokens, XSRF echo, request ids).
//   - apiclient: a JSON API client built on httpx/client with token persistence.
//   - realtime: a connection hook owning a STOMP-over-websocket broker for topic subscriptions.
//   - geo: client IP resolution from proxy headers and IP geolocation lookups.
//   - ops: health, readiness and log-level handlers for the bundled commands.
//
// The commands clientgeod and topictail under cmd/ assemble these packages into runnable
// services.
package clientkit
