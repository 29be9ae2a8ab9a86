package logging

import (
	"context"
	"errors"
	"log/slog"
)

type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopHandler{}
	case 1:
		return filtered[0]
	}
	return &fanoutHandler{handlers: filtered}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	last := len(h.handlers) - 1
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < last {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// levelRangeHandler passes through records whose level lies in [min, max).
// A nil max means no upper bound.
type levelRangeHandler struct {
	next     slog.Handler
	min, max slog.Level
	bounded  bool
}

func newLevelRangeHandler(next slog.Handler, min slog.Level, max *slog.Level) slog.Handler {
	h := &levelRangeHandler{next: next, min: min}
	if max != nil {
		h.max = *max
		h.bounded = true
	}
	return h
}

func (h *levelRangeHandler) accepts(level slog.Level) bool {
	if level < h.min {
		return false
	}
	return !h.bounded || level < h.max
}

func (h *levelRangeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.accepts(level) && h.next.Enabled(ctx, level)
}

func (h *levelRangeHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.accepts(record.Level) {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelRangeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRangeHandler{next: h.next.WithAttrs(attrs), min: h.min, max: h.max, bounded: h.bounded}
}

func (h *levelRangeHandler) WithGroup(name string) slog.Handler {
	return &levelRangeHandler{next: h.next.WithGroup(name), min: h.min, max: h.max, bounded: h.bounded}
}

// TeeLogger duplicates output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newFanoutHandler(handlers...))
	}
	all := append([]slog.Handler{base.Handler()}, handlers...)
	return slog.New(newFanoutHandler(all...))
}

// TeeHandler creates a handler that writes every record to all handlers.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	return newFanoutHandler(handlers...)
}
