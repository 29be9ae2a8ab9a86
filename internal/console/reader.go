// Package console turns operator input lines into callbacks.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"astrotux/internal/logging"
)

// Reader reads lines from an input stream on its own goroutine and passes
// each non-empty line to a callback while active. Lines read while inactive
// are discarded.
type Reader struct {
	in       io.Reader
	callback func(ctx context.Context, line string)
	logger   *slog.Logger
	active   atomic.Bool
}

// NewReader builds a reader. It starts inactive unless active is true.
func NewReader(in io.Reader, callback func(ctx context.Context, line string), active bool, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Reader{
		in:       in,
		callback: callback,
		logger:   logging.NewComponentLogger(logger, "console"),
	}
	r.active.Store(active)
	return r
}

// SetActive toggles line delivery.
func (r *Reader) SetActive(active bool) {
	r.active.Store(active)
}

// Active reports whether lines are being delivered.
func (r *Reader) Active() bool {
	return r.active.Load()
}

// Start runs the read loop in the background. The returned channel is closed
// when the input reaches EOF or fails, or when ctx ends. A read blocked on
// the input stream is not interrupted by ctx; the goroutine exits on its next
// line.
func (r *Reader) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.run(ctx)
	}()
	return done
}

func (r *Reader) run(ctx context.Context) {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !r.Active() {
			r.logger.Debug("console input ignored while inactive", slog.String("line", line))
			continue
		}
		if r.callback != nil {
			r.callback(ctx, line)
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("console input failed",
			logging.Error(err),
			slog.String(logging.FieldEventType, "console_read_failed"),
		)
	}
}
