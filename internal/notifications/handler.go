package notifications

import (
	"context"
	"errors"
	"fmt"
)

// DefaultHandlerName is injected as {name} when no name option is given.
const DefaultHandlerName = "Server"

// ErrTemplateMissing reports a whitelisted event kind with no template. It
// indicates a configuration mistake and is returned to the caller rather than
// silently dropping the event.
var ErrTemplateMissing = errors.New("notification template missing")

// Notifier is the contract Manager broadcasts to.
type Notifier interface {
	Name() string
	SendEvent(ctx context.Context, kind EventKind, params Params) error
}

// HandlerOption customizes handler construction.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	name      string
	whitelist []EventKind
	templates Templates
}

// WithName sets the value injected as {name} into every message.
func WithName(name string) HandlerOption {
	return func(o *handlerOptions) {
		o.name = name
	}
}

// WithWhitelist restricts the handler to the given kinds. Calling it with no
// kinds produces a handler that accepts nothing.
func WithWhitelist(kinds ...EventKind) HandlerOption {
	return func(o *handlerOptions) {
		o.whitelist = append([]EventKind{}, kinds...)
	}
}

// WithTemplates replaces the default template set. The map is copied.
func WithTemplates(templates Templates) HandlerOption {
	return func(o *handlerOptions) {
		o.templates = templates.Clone()
	}
}

func buildOptions(opts []HandlerOption) handlerOptions {
	o := handlerOptions{
		name:      DefaultHandlerName,
		whitelist: AllEventKinds(),
		templates: DefaultTemplates(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Handler filters events against a whitelist, renders them with the matching
// template, and forwards the message to its sink on the caller's goroutine.
// A Handler is immutable after construction and safe for concurrent use as
// long as its sink is.
type Handler struct {
	name      string
	whitelist map[EventKind]struct{}
	kinds     []EventKind
	templates Templates
	sink      Sink
}

// NewHandler builds a handler delivering to sink. A nil sink prints to
// stdout.
func NewHandler(sink Sink, opts ...HandlerOption) *Handler {
	if sink == nil {
		sink = NewConsoleSink(nil)
	}
	o := buildOptions(opts)
	h := &Handler{
		name:      o.name,
		whitelist: make(map[EventKind]struct{}, len(o.whitelist)),
		templates: o.templates,
		sink:      sink,
	}
	for _, kind := range o.whitelist {
		if _, dup := h.whitelist[kind]; dup {
			continue
		}
		h.whitelist[kind] = struct{}{}
		h.kinds = append(h.kinds, kind)
	}
	return h
}

// Name returns the handler name.
func (h *Handler) Name() string {
	return h.name
}

// Kinds returns the whitelisted kinds in the order they were configured.
func (h *Handler) Kinds() []EventKind {
	return append([]EventKind{}, h.kinds...)
}

// Accepts reports whether kind is whitelisted.
func (h *Handler) Accepts(kind EventKind) bool {
	_, ok := h.whitelist[kind]
	return ok
}

// Render formats the message for kind without delivering it. The handler name
// always overrides any caller supplied "name" parameter.
func (h *Handler) Render(kind EventKind, params Params) (string, error) {
	tmpl, ok := h.templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: handler %q has no template for %q", ErrTemplateMissing, h.name, kind)
	}
	values := params.clone()
	values["name"] = h.name
	return SafeFormat(tmpl, values), nil
}

// SendEvent renders and delivers the event. Non-whitelisted kinds are ignored
// without error.
func (h *Handler) SendEvent(ctx context.Context, kind EventKind, params Params) error {
	if !h.Accepts(kind) {
		eventsTotal.WithLabelValues(h.name, string(kind), outcomeFiltered).Inc()
		return nil
	}
	message, err := h.Render(kind, params)
	if err != nil {
		eventsTotal.WithLabelValues(h.name, string(kind), outcomeError).Inc()
		return err
	}
	if err := h.sink.Deliver(ctx, kind, message); err != nil {
		eventsTotal.WithLabelValues(h.name, string(kind), outcomeError).Inc()
		return fmt.Errorf("deliver %s via %q: %w", kind, h.name, err)
	}
	eventsTotal.WithLabelValues(h.name, string(kind), outcomeSent).Inc()
	return nil
}
