package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"astrotux/internal/config"
	"astrotux/internal/history"
	"astrotux/internal/logging"
	"astrotux/internal/notifications"
)

const ntfyDefaultServer = "https://ntfy.sh/"

// HandlerInfo describes one registered handler for status output.
type HandlerInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Queued  bool     `json:"queued"`
	Record  bool     `json:"record"`
	Events  []string `json:"events"`
	Pending int      `json:"pending"`
}

type handlerEntry struct {
	info   HandlerInfo
	queued *notifications.QueuedHandler
}

// Option customizes Agent construction.
type Option func(*Agent)

// WithStdout redirects console handler output.
func WithStdout(w io.Writer) Option {
	return func(a *Agent) {
		if w != nil {
			a.stdout = w
		}
	}
}

// Agent holds the manager and the resources its handlers depend on.
type Agent struct {
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	manager *notifications.Manager
	history *history.Store
	entries []handlerEntry
}

// New builds every configured handler and registers it on a fresh manager.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Agent{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "agent"),
		stdout:  os.Stdout,
		manager: notifications.NewManager(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	for i, hc := range cfg.Handlers {
		if err := a.addHandler(hc, logger); err != nil {
			_ = a.Close(context.Background())
			return nil, fmt.Errorf("handlers[%d] (%s): %w", i, hc.Type, err)
		}
	}
	a.logger.Debug("notification handlers ready",
		slog.Int("count", a.manager.Len()),
		slog.String(logging.FieldEventType, "handlers_ready"),
	)
	return a, nil
}

func (a *Agent) addHandler(hc config.Handler, logger *slog.Logger) error {
	sink, err := a.buildSink(hc, logger)
	if err != nil {
		return err
	}
	if hc.Record && hc.Type != config.HandlerHistory {
		store, err := a.historyStore()
		if err != nil {
			return err
		}
		sink = notifications.MultiSink(sink, store.Sink(hc.Name))
	}
	if hc.DelayMS > 0 {
		sink = notifications.NewDelaySink(sink, time.Duration(hc.DelayMS)*time.Millisecond)
	}

	opts, err := handlerOptions(hc)
	if err != nil {
		return err
	}

	entry := handlerEntry{info: HandlerInfo{
		Name:   hc.Name,
		Type:   hc.Type,
		Queued: hc.Queued,
		Record: hc.Record || hc.Type == config.HandlerHistory,
	}}
	var notifier notifications.Notifier
	if hc.Queued {
		queued := notifications.NewQueuedHandler(sink, logger, opts...)
		entry.queued = queued
		notifier = queued
		entry.info.Events = kindStrings(queued.Kinds())
	} else {
		handler := notifications.NewHandler(sink, opts...)
		notifier = handler
		entry.info.Events = kindStrings(handler.Kinds())
	}
	a.entries = append(a.entries, entry)
	a.manager.AddHandler(notifier)
	return nil
}

func (a *Agent) buildSink(hc config.Handler, logger *slog.Logger) (notifications.Sink, error) {
	switch hc.Type {
	case config.HandlerConsole:
		return notifications.NewConsoleSink(a.stdout), nil
	case config.HandlerLog:
		return notifications.NewLogSink(logging.NewComponentLogger(logger, "notify")), nil
	case config.HandlerNtfy:
		timeout := time.Duration(hc.RequestTimeout) * time.Second
		return notifications.NewNtfySink(ntfyEndpoint(hc.Topic), hc.Name, timeout), nil
	case config.HandlerHistory:
		store, err := a.historyStore()
		if err != nil {
			return nil, err
		}
		return store.Sink(hc.Name), nil
	default:
		return nil, fmt.Errorf("unsupported handler type %q", hc.Type)
	}
}

func (a *Agent) historyStore() (*history.Store, error) {
	if a.history != nil {
		return a.history, nil
	}
	store, err := history.Open(a.cfg.Notifications.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	a.history = store
	return store, nil
}

func handlerOptions(hc config.Handler) ([]notifications.HandlerOption, error) {
	opts := []notifications.HandlerOption{notifications.WithName(hc.Name)}
	if len(hc.Events) > 0 {
		kinds := make([]notifications.EventKind, 0, len(hc.Events))
		for _, raw := range hc.Events {
			kind, err := notifications.ParseEventKind(raw)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
		opts = append(opts, notifications.WithWhitelist(kinds...))
	}
	if len(hc.Templates) > 0 {
		overrides := make(notifications.Templates, len(hc.Templates))
		for raw, tmpl := range hc.Templates {
			kind, err := notifications.ParseEventKind(raw)
			if err != nil {
				return nil, err
			}
			overrides[kind] = tmpl
		}
		opts = append(opts, notifications.WithTemplates(notifications.DefaultTemplates().Merge(overrides)))
	}
	return opts, nil
}

func ntfyEndpoint(topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.Contains(topic, "://") {
		return topic
	}
	return ntfyDefaultServer + strings.TrimPrefix(topic, "/")
}

func kindStrings(kinds []notifications.EventKind) []string {
	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = kind.String()
	}
	return out
}

// Manager returns the broadcast manager.
func (a *Agent) Manager() *notifications.Manager {
	return a.manager
}

// History returns the history store, or nil when no handler records.
func (a *Agent) History() *history.Store {
	return a.history
}

// Handlers reports the registered handlers in broadcast order.
func (a *Agent) Handlers() []HandlerInfo {
	out := make([]HandlerInfo, len(a.entries))
	for i, entry := range a.entries {
		info := entry.info
		info.Events = append([]string(nil), info.Events...)
		if entry.queued != nil {
			info.Pending = entry.queued.Pending()
		}
		out[i] = info
	}
	return out
}

// Send broadcasts one event to every handler.
func (a *Agent) Send(ctx context.Context, kind notifications.EventKind, params notifications.Params) error {
	if err := a.manager.SendEvent(ctx, kind, params); err != nil {
		a.logger.Warn("notification send failed",
			slog.String("event", kind.String()),
			logging.Error(err),
			slog.String(logging.FieldEventType, "notification_send_failed"),
			slog.String(logging.FieldErrorHint, "check handler configuration"),
		)
		return err
	}
	return nil
}

// Close flushes queued handlers, bounded by ctx and the configured shutdown
// timeout, then closes the history database.
func (a *Agent) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if seconds := a.cfg.Notifications.ShutdownTimeout; seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
		defer cancel()
	}

	var errs []error
	if err := a.manager.Close(ctx); err != nil {
		a.logger.Warn("queued handlers did not flush cleanly",
			logging.Error(err),
			slog.String(logging.FieldEventType, "handler_flush_incomplete"),
		)
		errs = append(errs, err)
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
		a.history = nil
	}
	return errors.Join(errs...)
}
