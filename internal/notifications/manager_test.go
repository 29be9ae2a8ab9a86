package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"astrotux/internal/logging"
	"astrotux/internal/notifications"
)

type orderedNotifier struct {
	name  string
	mu    *sync.Mutex
	calls *[]string
	err   error
}

func (n *orderedNotifier) Name() string { return n.name }

func (n *orderedNotifier) SendEvent(context.Context, notifications.EventKind, notifications.Params) error {
	n.mu.Lock()
	*n.calls = append(*n.calls, n.name)
	n.mu.Unlock()
	return n.err
}

func TestManagerBroadcastsInRegistrationOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	m := notifications.NewManager()
	for _, name := range []string{"h1", "h2", "h3"} {
		m.AddHandler(&orderedNotifier{name: name, mu: &mu, calls: &calls})
	}

	if err := m.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
		t.Fatalf("SendEvent returned error: %v", err)
	}
	if len(calls) != 3 || calls[0] != "h1" || calls[1] != "h2" || calls[2] != "h3" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestManagerAllowsDuplicateRegistration(t *testing.T) {
	sink := newRecordingSink()
	h := notifications.NewHandler(sink)
	m := notifications.NewManager(h, h)
	if m.Len() != 2 {
		t.Fatalf("expected 2 registrations, got %d", m.Len())
	}
	if err := m.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
		t.Fatalf("SendEvent returned error: %v", err)
	}
	if got := sink.deliveries(); len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
}

func TestManagerClear(t *testing.T) {
	sink := newRecordingSink()
	m := notifications.NewManager(notifications.NewHandler(sink))
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("expected empty manager, got %d", m.Len())
	}
	if err := m.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
		t.Fatalf("SendEvent returned error: %v", err)
	}
	if got := sink.deliveries(); len(got) != 0 {
		t.Fatalf("expected no deliveries after Clear, got %v", got)
	}
}

func TestManagerStopsAtFirstError(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	boom := errors.New("boom")
	m := notifications.NewManager(
		&orderedNotifier{name: "h1", mu: &mu, calls: &calls},
		&orderedNotifier{name: "h2", mu: &mu, calls: &calls, err: boom},
		&orderedNotifier{name: "h3", mu: &mu, calls: &calls},
	)

	if err := m.SendEvent(context.Background(), notifications.EventCrash, nil); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected broadcast to stop after h2, got %v", calls)
	}
}

func TestManagerPropagatesMissingTemplate(t *testing.T) {
	sink := newRecordingSink()
	m := notifications.NewManager(notifications.NewHandler(sink, notifications.WithTemplates(notifications.Templates{})))
	err := m.SendEvent(context.Background(), notifications.EventStart, nil)
	if !errors.Is(err, notifications.ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestManagerWithQueuedHandlerDeliversAsynchronously(t *testing.T) {
	sink := newRecordingSink()
	gate := make(chan struct{})
	gated := notifications.SinkFunc(func(ctx context.Context, kind notifications.EventKind, message string) error {
		<-gate
		return sink.Deliver(ctx, kind, message)
	})
	q := notifications.NewQueuedHandler(gated, logging.NewNop())
	m := notifications.NewManager(q)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Close(ctx); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	}()

	if err := m.SendEvent(context.Background(), notifications.EventStart, nil); err != nil {
		t.Fatalf("SendEvent returned error: %v", err)
	}
	if got := sink.deliveries(); len(got) != 0 {
		t.Fatalf("expected no immediate delivery, got %v", got)
	}
	close(gate)

	got := sink.waitFor(1, 5*time.Second)
	if len(got) != 1 || got[0].message != "[Server] Server started!" {
		t.Fatalf("expected start message within bounded delay, got %v", got)
	}
}

func TestManagerConcurrentRegistrationAndBroadcast(t *testing.T) {
	m := notifications.NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.AddHandler(notifications.NewHandler(notifications.SinkFunc(func(context.Context, notifications.EventKind, string) error {
				return nil
			})))
		}()
		go func() {
			defer wg.Done()
			_ = m.SendEvent(context.Background(), notifications.EventStart, nil)
		}()
	}
	wg.Wait()
	if m.Len() != 10 {
		t.Fatalf("expected 10 handlers, got %d", m.Len())
	}
}

type taggedNotifier struct {
	tags   []string
	closes *int
}

func (n taggedNotifier) Name() string { return "tagged" }

func (n taggedNotifier) SendEvent(context.Context, notifications.EventKind, notifications.Params) error {
	return nil
}

func (n taggedNotifier) Close(context.Context) error {
	*n.closes++
	return nil
}

func TestManagerCloseHandlesNonComparableHandlers(t *testing.T) {
	closes := 0
	queued := notifications.NewQueuedHandler(newRecordingSink(), logging.NewNop())
	m := notifications.NewManager(
		taggedNotifier{tags: []string{"ops"}, closes: &closes},
		queued,
		queued,
	)

	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if closes != 1 {
		t.Fatalf("expected tagged handler closed once, got %d", closes)
	}
	select {
	case <-queued.Done():
	default:
		t.Fatal("expected queued handler worker to stop")
	}
}
