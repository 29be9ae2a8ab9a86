package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"astrotux/internal/logging"
	"astrotux/internal/notifications"
)

func newQueued(t *testing.T, sink notifications.Sink, opts ...notifications.HandlerOption) *notifications.QueuedHandler {
	t.Helper()
	return newQueuedWithLogger(t, sink, logging.NewNop(), opts...)
}

func newQueuedWithLogger(t *testing.T, sink notifications.Sink, logger *slog.Logger, opts ...notifications.HandlerOption) *notifications.QueuedHandler {
	t.Helper()
	q := notifications.NewQueuedHandler(sink, logger, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Close(ctx)
	})
	return q
}

func TestQueuedHandlerDeliversInOrder(t *testing.T) {
	sink := newRecordingSink()
	q := newQueued(t, sink)

	for i := 0; i < 20; i++ {
		if err := q.SendEvent(context.Background(), notifications.EventMessage, notifications.Params{"message": i}); err != nil {
			t.Fatalf("SendEvent returned error: %v", err)
		}
	}

	got := sink.waitFor(20, 5*time.Second)
	if len(got) != 20 {
		t.Fatalf("expected 20 deliveries, got %d", len(got))
	}
	for i, d := range got {
		if want := fmt.Sprintf("[Server] %d", i); d.message != want {
			t.Fatalf("delivery %d = %q, want %q", i, d.message, want)
		}
	}
}

func TestQueuedHandlerPreservesEnqueueOrderAcrossProducers(t *testing.T) {
	sink := newRecordingSink()
	q := newQueued(t, sink)

	var (
		mu       sync.Mutex
		expected []string
		wg       sync.WaitGroup
	)
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				msg := fmt.Sprintf("p%d-%d", producer, i)
				mu.Lock()
				err := q.SendEvent(context.Background(), notifications.EventMessage, notifications.Params{"message": msg})
				expected = append(expected, "[Server] "+msg)
				mu.Unlock()
				if err != nil {
					t.Errorf("SendEvent returned error: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	got := sink.waitFor(100, 5*time.Second)
	if len(got) != len(expected) {
		t.Fatalf("expected %d deliveries, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i].message != expected[i] {
			t.Fatalf("delivery %d = %q, want %q", i, got[i].message, expected[i])
		}
	}
}

func TestQueuedHandlerProducerDoesNotWaitForSink(t *testing.T) {
	sink := newRecordingSink()
	q := newQueued(t, notifications.NewDelaySink(sink, 500*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := q.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
			t.Fatalf("SendEvent returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("SendEvent blocked for %s", elapsed)
	}
	if got := sink.deliveries(); len(got) != 0 {
		t.Fatalf("expected delivery to be deferred, got %v", got)
	}
	if q.Pending() == 0 {
		t.Fatal("expected pending messages while sink is slow")
	}
}

func TestQueuedHandlerNeverDeliversConcurrently(t *testing.T) {
	var (
		mu       sync.Mutex
		inflight int
		maxSeen  int
	)
	sink := newRecordingSink()
	sink.deliverF = func(delivery) error {
		mu.Lock()
		inflight++
		if inflight > maxSeen {
			maxSeen = inflight
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		inflight--
		mu.Unlock()
		return nil
	}
	q := newQueued(t, sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.SendEvent(context.Background(), notifications.EventStart, nil)
		}()
	}
	wg.Wait()
	sink.waitFor(8, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if maxSeen != 1 {
		t.Fatalf("expected single-flight delivery, saw %d concurrent", maxSeen)
	}
}

func TestQueuedHandlerContinuesAfterDeliveryFailure(t *testing.T) {
	sink := newRecordingSink()
	sink.deliverF = func(d delivery) error {
		if d.kind == notifications.EventCrash {
			return errors.New("transport down")
		}
		return nil
	}
	var logs lockedBuffer
	q := newQueuedWithLogger(t, sink, slog.New(slog.NewJSONHandler(&logs, nil)), notifications.WithName("Box"))

	_ = q.SendEvent(context.Background(), notifications.EventCrash, nil)
	_ = q.SendEvent(context.Background(), notifications.EventStart, nil)

	got := sink.waitFor(2, 5*time.Second)
	if len(got) != 2 || got[1].kind != notifications.EventStart {
		t.Fatalf("worker did not continue after failure: %v", got)
	}

	out := logs.String()
	for _, want := range []string{
		`"level":"WARN"`,
		`"msg":"notification delivery failed"`,
		`"handler":"Box"`,
		`"event":"crash"`,
		`"error":"transport down"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %s, got %s", want, out)
		}
	}
}

func TestQueuedHandlerRecoversFromSinkPanic(t *testing.T) {
	sink := newRecordingSink()
	panicked := false
	var logs lockedBuffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	q := newQueuedWithLogger(t, notifications.SinkFunc(func(ctx context.Context, kind notifications.EventKind, message string) error {
		if !panicked {
			panicked = true
			panic("sink exploded")
		}
		return sink.Deliver(ctx, kind, message)
	}), logger)

	_ = q.SendEvent(context.Background(), notifications.EventCrash, nil)
	_ = q.SendEvent(context.Background(), notifications.EventStart, nil)

	got := sink.waitFor(1, 5*time.Second)
	if len(got) != 1 || got[0].kind != notifications.EventStart {
		t.Fatalf("expected start delivery after panic, got %v", got)
	}

	out := logs.String()
	for _, want := range []string{
		`"level":"ERROR"`,
		`"msg":"notification sink panicked"`,
		`"handler":"Server"`,
		`"event":"crash"`,
		`"panic":"sink exploded"`,
		`"msg":"notification delivery failed"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %s, got %s", want, out)
		}
	}
}

func TestQueuedHandlerCloseRacingProducersLosesNothing(t *testing.T) {
	for iter := 0; iter < 50; iter++ {
		var delivered atomic.Int64
		q := notifications.NewQueuedHandler(notifications.SinkFunc(func(context.Context, notifications.EventKind, string) error {
			delivered.Add(1)
			return nil
		}), logging.NewNop())

		var accepted atomic.Int64
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if err := q.SendEvent(context.Background(), notifications.EventStart, nil); err == nil {
						accepted.Add(1)
					} else if !errors.Is(err, notifications.ErrHandlerClosed) {
						t.Errorf("unexpected SendEvent error: %v", err)
						return
					}
				}
			}()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := q.Close(ctx)
		cancel()
		wg.Wait()
		if err != nil {
			t.Fatalf("iteration %d: Close: %v", iter, err)
		}
		if got, want := delivered.Load(), accepted.Load(); got != want {
			t.Fatalf("iteration %d: delivered %d of %d accepted events", iter, got, want)
		}
		if q.Pending() != 0 {
			t.Fatalf("iteration %d: pending %d after Close", iter, q.Pending())
		}
	}
}

func TestQueuedHandlerStillFiltersAndValidates(t *testing.T) {
	sink := newRecordingSink()
	q := newQueued(t, sink,
		notifications.WithWhitelist(notifications.EventStart, notifications.EventCrash),
		notifications.WithTemplates(notifications.Templates{notifications.EventStart: "[{name}] up"}),
	)

	if err := q.SendEvent(context.Background(), notifications.EventPlayerJoin, nil); err != nil {
		t.Fatalf("non-whitelisted event returned error: %v", err)
	}
	if err := q.SendEvent(context.Background(), notifications.EventCrash, nil); !errors.Is(err, notifications.ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing on the caller, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if got := sink.deliveries(); len(got) != 0 {
		t.Fatalf("expected no deliveries, got %v", got)
	}
}

func TestQueuedHandlerCloseFlushesPending(t *testing.T) {
	sink := newRecordingSink()
	q := notifications.NewQueuedHandler(notifications.NewDelaySink(sink, 10*time.Millisecond), logging.NewNop())

	for i := 0; i < 5; i++ {
		if err := q.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
			t.Fatalf("SendEvent returned error: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if got := sink.deliveries(); len(got) != 5 {
		t.Fatalf("expected all 5 messages flushed, got %d", len(got))
	}
	if q.Pending() != 0 {
		t.Fatalf("expected nothing pending, got %d", q.Pending())
	}
	if err := q.SendEvent(context.Background(), notifications.EventStart, nil); !errors.Is(err, notifications.ErrHandlerClosed) {
		t.Fatalf("expected ErrHandlerClosed after Close, got %v", err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestQueuedHandlerCloseHonoursDeadline(t *testing.T) {
	q := notifications.NewQueuedHandler(notifications.SinkFunc(func(ctx context.Context, _ notifications.EventKind, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}), logging.NewNop())

	_ = q.SendEvent(context.Background(), notifications.EventStart, nil)
	_ = q.SendEvent(context.Background(), notifications.EventShutdown, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	select {
	case <-q.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after cancellation")
	}
}
