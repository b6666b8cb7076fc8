package safego

import (
	"context"
	"log/slog"
)

func (c config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func tagAttrs(name string, tags []Tag) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(tags)+1)
	if name != "" {
		attrs = append(attrs, slog.String("name", name))
	}
	for _, t := range tags {
		attrs = append(attrs, slog.String(t.Key, t.Value))
	}
	return attrs
}

func logPanic(ctx context.Context, l *slog.Logger, info PanicInfo) {
	attrs := tagAttrs(info.Name, info.Tags)
	attrs = append(attrs,
		slog.Any("panic", info.Value),
		slog.String("stack", string(info.Stack)),
	)
	l.LogAttrs(ctx, slog.LevelError, "safego: panic", attrs...)
}

func logError(ctx context.Context, l *slog.Logger, info ErrorInfo) {
	attrs := tagAttrs(info.Name, info.Tags)
	attrs = append(attrs, slog.Any("error", info.Err))
	l.LogAttrs(ctx, slog.LevelError, "safego: error", attrs...)
}
