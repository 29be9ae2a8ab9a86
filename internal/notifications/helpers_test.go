package notifications_test

import (
	"bytes"
	"context"
	"sync"
	"time"

	"astrotux/internal/notifications"
)

type delivery struct {
	kind    notifications.EventKind
	message string
}

type recordingSink struct {
	mu       sync.Mutex
	got      []delivery
	notify   chan delivery
	deliverF func(delivery) error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan delivery, 1024)}
}

func (s *recordingSink) Deliver(_ context.Context, kind notifications.EventKind, message string) error {
	d := delivery{kind: kind, message: message}
	var err error
	if s.deliverF != nil {
		err = s.deliverF(d)
	}
	s.mu.Lock()
	s.got = append(s.got, d)
	s.mu.Unlock()
	s.notify <- d
	return err
}

func (s *recordingSink) deliveries() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.got...)
}

// waitFor blocks until n deliveries have been observed or the timeout passes.
func (s *recordingSink) waitFor(n int, timeout time.Duration) []delivery {
	deadline := time.After(timeout)
	for len(s.deliveries()) < n {
		select {
		case <-s.notify:
		case <-deadline:
			return s.deliveries()
		}
	}
	return s.deliveries()
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
