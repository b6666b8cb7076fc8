package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// ReadyCheckFunc returns nil when the dependency is ready. It must respect ctx.
type ReadyCheckFunc func(context.Context) error

// ReadyCheck is a named readiness check.
type ReadyCheck struct {
	Name string
	Func ReadyCheckFunc
	// Timeout bounds a single run; <= 0 means no extra timeout.
	Timeout time.Duration
}

// ReadyCheckResult is the outcome of one check.
type ReadyCheckResult struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// ReadyzReport is a point-in-time readiness report.
type ReadyzReport struct {
	OK       bool               `json:"ok"`
	Duration time.Duration      `json:"duration"`
	Checks   []ReadyCheckResult `json:"checks,omitempty"`
}

// ErrNotReady is returned by StateCheck when the probed state is false.
var ErrNotReady = errors.New("not ready")

// StateCheck adapts a state probe such as (*realtime.Hook).Connected.
func StateCheck(name string, ok func() bool) ReadyCheck {
	return ReadyCheck{Name: name, Func: func(context.Context) error {
		if !ok() {
			return ErrNotReady
		}
		return nil
	}}
}

// HealthzHandler always answers 200 for GET and HEAD.
func HealthzHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowRead(w, r) {
			return
		}
		write(w, r, http.StatusOK, map[string]bool{"ok": true}, "ok\n")
	})
}

// ReadyzHandler runs checks sequentially and answers 200 when all pass, 503 otherwise.
func ReadyzHandler(checks []ReadyCheck) http.Handler {
	for i, c := range checks {
		if c.Name == "" || c.Func == nil {
			panic(fmt.Sprintf("ops: ready check[%d] needs a Name and a Func", i))
		}
	}
	snapshot := append([]ReadyCheck(nil), checks...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowRead(w, r) {
			return
		}
		rep := RunReadyzChecks(r.Context(), snapshot)
		code := http.StatusOK
		text := "ok\n"
		if !rep.OK {
			code = http.StatusServiceUnavailable
			text = ""
			for _, c := range rep.Checks {
				if !c.OK {
					text += "fail " + c.Name + ": " + c.Error + "\n"
				}
			}
		}
		write(w, r, code, rep, text)
	})
}

// RunReadyzChecks executes checks sequentially.
func RunReadyzChecks(ctx context.Context, checks []ReadyCheck) ReadyzReport {
	start := time.Now()
	rep := ReadyzReport{OK: true, Checks: make([]ReadyCheckResult, 0, len(checks))}
	for _, c := range checks {
		cr := runOneCheck(ctx, c)
		rep.Checks = append(rep.Checks, cr)
		rep.OK = rep.OK && cr.OK
	}
	rep.Duration = time.Since(start)
	return rep
}

func runOneCheck(parent context.Context, c ReadyCheck) (cr ReadyCheckResult) {
	cr.Name = c.Name
	start := time.Now()
	ctx := parent
	cancel := func() {}
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
	}
	defer cancel()

	defer func() {
		cr.Duration = time.Since(start)
		if p := recover(); p != nil {
			cr.OK = false
			cr.Error = fmt.Sprintf("panic: %v", p)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cr.OK = false
			cr.TimedOut = true
			if cr.Error == "" {
				cr.Error = "timeout"
			}
		}
	}()

	if err := c.Func(ctx); err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.OK = true
	return cr
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	write(w, r, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"}, "method not allowed\n")
	return false
}

// write renders v as JSON when ?format=json, text otherwise.
func write(w http.ResponseWriter, r *http.Request, code int, v any, text string) {
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("format") == "json" {
		render.Status(r, code)
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(code)
			return
		}
		render.JSON(w, r, v)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(text))
	}
}
