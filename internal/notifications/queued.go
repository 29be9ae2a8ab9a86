package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartwalle/queue/block"
)

// ErrHandlerClosed is returned when an event is sent to a closed queued
// handler.
var ErrHandlerClosed = errors.New("notification handler closed")

// Delivery is one rendered message waiting for the worker.
type Delivery struct {
	Kind    EventKind
	Message string

	stop bool
}

// QueuedHandler filters and renders on the caller's goroutine, then hands the
// message to a single worker goroutine that delivers it to the sink. Messages
// from one handler are delivered strictly in enqueue order and never
// concurrently. Delivery failures are logged and the worker moves on to the
// next message.
type QueuedHandler struct {
	*Handler

	sink   Sink
	logger *slog.Logger
	queue  block.Queue[Delivery]

	pending atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// mu orders enqueues against Close: once Close holds it, every accepted
	// message is already ahead of the stop marker.
	mu        sync.RWMutex
	closeOnce sync.Once
	closed    bool
}

// NewQueuedHandler builds a queued handler and starts its worker. The worker
// runs until Close is called.
func NewQueuedHandler(sink Sink, logger *slog.Logger, opts ...HandlerOption) *QueuedHandler {
	if sink == nil {
		sink = NewConsoleSink(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &QueuedHandler{
		sink:   sink,
		queue:  block.New[Delivery](),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	q.Handler = NewHandler(SinkFunc(q.enqueue), opts...)
	q.logger = logger.With(
		slog.String("component", "notifications"),
		slog.String("handler", q.Handler.Name()),
	)
	go q.run()
	return q
}

// Pending returns the number of messages accepted but not yet delivered.
func (q *QueuedHandler) Pending() int {
	return int(q.pending.Load())
}

// Close stops accepting events and waits for the worker to deliver everything
// already queued. If ctx ends first, in-flight and remaining deliveries see a
// cancelled context and Close returns ctx.Err().
//
// The worker stops on an in-band marker rather than on the queue's close
// broadcast, which the block queue sends without holding its lock and can
// therefore miss a worker that is about to wait.
func (q *QueuedHandler) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.queue.Enqueue(Delivery{stop: true})
		q.mu.Unlock()
		q.queue.Close()
	})
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

// Done is closed once the worker has exited.
func (q *QueuedHandler) Done() <-chan struct{} {
	return q.done
}

func (q *QueuedHandler) enqueue(_ context.Context, kind EventKind, message string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrHandlerClosed
	}
	depth := queueDepth.WithLabelValues(q.Name())
	q.pending.Add(1)
	depth.Inc()
	if !q.queue.Enqueue(Delivery{Kind: kind, Message: message}) {
		q.pending.Add(-1)
		depth.Dec()
		return ErrHandlerClosed
	}
	return nil
}

func (q *QueuedHandler) run() {
	defer close(q.done)
	defer q.cancel()

	var batch []Delivery
	for {
		batch = batch[:0]
		ok := q.queue.Dequeue(&batch)
		for _, item := range batch {
			if item.stop {
				return
			}
			q.deliver(item)
		}
		if !ok {
			if n := q.Pending(); n > 0 {
				q.logger.Warn("notification worker stopped with undelivered messages",
					slog.Int("pending", n),
				)
			}
			return
		}
	}
}

func (q *QueuedHandler) deliver(item Delivery) {
	start := time.Now()
	err := q.safeDeliver(item)
	deliveryDuration.WithLabelValues(q.Name()).Observe(time.Since(start).Seconds())
	q.pending.Add(-1)
	queueDepth.WithLabelValues(q.Name()).Dec()

	if err != nil {
		deliveriesTotal.WithLabelValues(q.Name(), string(item.Kind), statusFailed).Inc()
		q.logger.Warn("notification delivery failed",
			slog.String("event", string(item.Kind)),
			slog.String("error", err.Error()),
		)
		return
	}
	deliveriesTotal.WithLabelValues(q.Name(), string(item.Kind), statusOK).Inc()
}

func (q *QueuedHandler) safeDeliver(item Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("notification sink panicked",
				slog.String("event", string(item.Kind)),
				slog.Any("panic", r),
			)
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return q.sink.Deliver(q.ctx, item.Kind, item.Message)
}
