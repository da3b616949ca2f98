package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"gopkg.in/natefinch/lumberjack.v2"
)

// tee fans records out to several sinks. Each sink keeps its own level, so
// the rolling file can record trace-level model events that the console
// leaves out.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

//nolint:gocritic // slog.Handler passes records by value
func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(f func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = f(h)
	}

	return out
}

// newFileHandler writes JSON at level, or at fallback when level is empty.
func newFileHandler(w io.Writer, level string, fallback slog.Level) slog.Handler {
	fileLevel := fallback
	if level != "" {
		fileLevel = ParseLevel(level)
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       fileLevel,
		ReplaceAttr: NewReplaceAttr(),
	})
}

func newFileWriter(cfg FileConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
