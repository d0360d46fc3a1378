package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes each record to every branch that accepts its level, so
// serve can keep its console output while mirroring into the event log.
type teeHandler []slog.Handler

// TeeHandler combines handlers. Nil entries are ignored, a single survivor is
// returned as is, and none yields a discarding handler.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	var branches teeHandler
	for _, h := range handlers {
		if h != nil {
			branches = append(branches, h)
		}
	}
	switch len(branches) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return branches[0]
	}
	return branches
}

// TeeLogger returns a logger writing to base's handler and the extra handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(TeeHandler(handlers...))
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, branch := range t {
		if branch.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives every branch its own clone of the record; a failing branch
// does not stop the others.
func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, branch := range t {
		if branch.Enabled(ctx, record.Level) {
			errs = append(errs, branch.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	next := make(teeHandler, len(t))
	for i, branch := range t {
		next[i] = fn(branch)
	}
	return next
}
