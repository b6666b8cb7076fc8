// Package ops provides the operational endpoints of the clientkit daemons: liveness, readiness
// with named checks, and a runtime log level switch.
//
// Handlers answer plain text by default and JSON with ?format=json.
//
//	r.Method(http.MethodGet, "/healthz", ops.HealthzHandler())
//	r.Method(http.MethodGet, "/readyz", ops.ReadyzHandler([]ops.ReadyCheck{
//		ops.StateCheck("broker", hook.Connected),
//	}))
//	r.Handle("/admin/log-level", ops.LogLevelHandler(levelVar))
package ops
