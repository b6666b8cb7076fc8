package ops

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// LogLevelSnapshot is a point-in-time view of a slog.LevelVar.
type LogLevelSnapshot struct {
	// Level is one of debug, info, warn, error.
	Level      string `json:"level"`
	LevelValue int    `json:"level_value"`
}

// LogLevel returns a snapshot of lv.
func LogLevel(lv *slog.LevelVar) LogLevelSnapshot {
	l := lv.Level()
	return LogLevelSnapshot{Level: levelName(l), LevelValue: int(l)}
}

// ParseLogLevel parses debug, info, warn or error, case-insensitively.
// "warning" and "err" are accepted as aliases.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("ops: invalid log level %q (want debug, info, warn or error)", s)
	}
}

// LogLevelHandler reports lv on GET/HEAD and sets it on POST ?level=<name>.
func LogLevelHandler(lv *slog.LevelVar) http.Handler {
	if lv == nil {
		panic("ops: nil slog.LevelVar")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			snap := LogLevel(lv)
			write(w, r, http.StatusOK, snap, "level: "+snap.Level+"\n")
		case http.MethodPost:
			raw := r.URL.Query().Get("level")
			if strings.TrimSpace(raw) == "" {
				write(w, r, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing level"}, "missing level\n")
				return
			}
			l, err := ParseLogLevel(raw)
			if err != nil {
				write(w, r, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()}, err.Error()+"\n")
				return
			}
			old := LogLevel(lv)
			lv.Set(l)
			snap := LogLevel(lv)
			slog.Info("log level changed", slog.String("old", old.Level), slog.String("new", snap.Level))
			write(w, r, http.StatusOK, map[string]any{"ok": true, "old": old, "new": snap},
				"level: "+old.Level+" -> "+snap.Level+"\n")
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			write(w, r, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"}, "method not allowed\n")
		}
	})
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "debug"
	case l < slog.LevelWarn:
		return "info"
	case l < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}
