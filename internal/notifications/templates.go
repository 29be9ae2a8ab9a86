package notifications

// Templates maps each event kind to its message template.
type Templates map[EventKind]string

// DefaultTemplates returns the stock message set. A new map is built on every
// call so handlers never share mutable defaults.
func DefaultTemplates() Templates {
	return Templates{
		EventMessage:     "[{name}] {message}",
		EventStart:       "[{name}] Server started!",
		EventRegistered:  "[{name}] Server registered with Playfab!",
		EventShutdown:    "[{name}] Server shutdown!",
		EventCrash:       "[{name}] Server crashed!",
		EventPlayerJoin:  "[{name}] Player '{player}' joined the game",
		EventPlayerLeave: "[{name}] Player '{player}' left the game",
		EventCommand:     "[{name}] Command executed: {command}",
	}
}

// Clone returns an independent copy of t.
func (t Templates) Clone() Templates {
	out := make(Templates, len(t))
	for kind, tmpl := range t {
		out[kind] = tmpl
	}
	return out
}

// Merge returns a copy of t with overrides applied on top.
func (t Templates) Merge(overrides Templates) Templates {
	out := t.Clone()
	for kind, tmpl := range overrides {
		out[kind] = tmpl
	}
	return out
}
