package notifications

import (
	"errors"
	"fmt"
	"strings"
)

// EventKind enumerates the server events a handler can be notified about.
type EventKind string

const (
	EventMessage     EventKind = "message"
	EventStart       EventKind = "start"
	EventRegistered  EventKind = "registered"
	EventShutdown    EventKind = "shutdown"
	EventCrash       EventKind = "crash"
	EventPlayerJoin  EventKind = "player_join"
	EventPlayerLeave EventKind = "player_leave"
	EventCommand     EventKind = "command"
)

// ErrUnknownEvent reports an event name outside the closed set of kinds.
var ErrUnknownEvent = errors.New("unknown event kind")

// AllEventKinds returns every event kind in declaration order. The slice is
// freshly allocated on each call.
func AllEventKinds() []EventKind {
	return []EventKind{
		EventMessage,
		EventStart,
		EventRegistered,
		EventShutdown,
		EventCrash,
		EventPlayerJoin,
		EventPlayerLeave,
		EventCommand,
	}
}

// ParseEventKind resolves a kind from its name. Matching ignores case and
// surrounding whitespace, so "PLAYER_JOIN" and "player_join" are equivalent.
func ParseEventKind(value string) (EventKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, kind := range AllEventKinds() {
		if string(kind) == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, value)
}

// Valid reports whether k is one of the declared kinds.
func (k EventKind) Valid() bool {
	for _, kind := range AllEventKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func (k EventKind) String() string {
	return string(k)
}

// Params carries the named values substituted into an event template.
type Params map[string]any

// clone returns a shallow copy so handlers can inject fields without touching
// the caller's map.
func (p Params) clone() Params {
	out := make(Params, len(p)+1)
	for key, value := range p {
		out[key] = value
	}
	return out
}
