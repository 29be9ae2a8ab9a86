package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Sink delivers a rendered message to its destination. Deliver may block; it
// is called on the producer's goroutine by Handler and on the worker
// goroutine by QueuedHandler.
type Sink interface {
	Deliver(ctx context.Context, kind EventKind, message string) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, kind EventKind, message string) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, kind EventKind, message string) error {
	return f(ctx, kind, message)
}

type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink prints each message on its own line to w (stdout when nil).
func NewConsoleSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stdout
	}
	return &consoleSink{w: w}
}

func (s *consoleSink) Deliver(_ context.Context, _ EventKind, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, message); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

type logSink struct {
	logger *slog.Logger
}

// NewLogSink routes messages into the structured log at INFO, or WARN for
// crash events.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return logSink{logger: logger}
}

func (s logSink) Deliver(ctx context.Context, kind EventKind, message string) error {
	level := slog.LevelInfo
	if kind == EventCrash {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, message, slog.String("event", string(kind)))
	return nil
}

type delaySink struct {
	next  Sink
	delay time.Duration
}

// NewDelaySink waits for delay before handing each message to next. It models
// a slow transport and gives tests a deterministic latency to measure against.
// The wait is abandoned if ctx is cancelled.
func NewDelaySink(next Sink, delay time.Duration) Sink {
	if delay <= 0 {
		return next
	}
	return delaySink{next: next, delay: delay}
}

func (s delaySink) Deliver(ctx context.Context, kind EventKind, message string) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return s.next.Deliver(ctx, kind, message)
}

// MultiSink delivers to each sink in order and stops at the first failure.
func MultiSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return SinkFunc(func(ctx context.Context, kind EventKind, message string) error {
		for _, s := range filtered {
			if err := s.Deliver(ctx, kind, message); err != nil {
				return err
			}
		}
		return nil
	})
}
