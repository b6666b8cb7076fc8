// Package geo resolves the client IP of an inbound request and enriches it with geolocation.
//
// The client IP comes from the first proxy header in DefaultHeaderRules whose first entry looks
// like an IP, falling back to the peer address. The check is a format check only; see IsValidIP.
// Headers are spoofable by any client unless a trusted proxy overwrites them, so deployments that
// are not behind such a proxy should use WithTrustedProxies.
//
// Resolver.Lookup queries an ip-api.com compatible endpoint. Resolver.Resolve combines both steps
// and never fails: any error is logged and reported as a nil *Location.
//
//	r := geo.NewResolver(geo.WithTimeout(3 * time.Second))
//	loc := r.Resolve(ctx, geo.HTTPRequest(req))
package geo
