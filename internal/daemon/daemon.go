package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"astrotux/internal/agent"
	"astrotux/internal/api"
	"astrotux/internal/config"
	"astrotux/internal/console"
	"astrotux/internal/logging"
	"astrotux/internal/notifications"
)

const lockFileName = "astrotux.lock"

// ErrAlreadyRunning is returned by Start when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another astrotux agent is already running")

// Option customizes the daemon.
type Option func(*Daemon)

// WithInput enables the console reader on r. Lines become command events.
func WithInput(r io.Reader) Option {
	return func(d *Daemon) {
		d.input = r
	}
}

// Daemon owns the agent lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	agent  *agent.Agent

	lockPath string
	lock     *flock.Flock

	input   io.Reader
	console *console.Reader
	server  *api.Server

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	APIAddress   string
	Handlers     []agent.HandlerInfo
}

// New constructs a daemon around an already built agent.
func New(cfg *config.Config, a *agent.Agent, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || a == nil {
		return nil, errors.New("daemon requires config and agent")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Logging.Dir, lockFileName)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		agent:    a,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Start acquires the lock, starts the API and console reader, and emits a
// start event.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if bind := d.cfg.Notifications.APIBind; bind != "" {
		router := api.NewRouter(d.agent, api.Options{
			Token:   d.cfg.Notifications.APIToken,
			History: historyLister(d.agent),
			Logger:  d.logger,
		})
		server := api.NewServer(bind, router, d.logger)
		if err := server.Start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
		d.server = server
	}
	if d.input != nil {
		d.console = console.NewReader(d.input, d.handleLine, true, d.logger)
		d.console.Start(runCtx)
	}
	d.cancel = cancel
	d.running.Store(true)

	d.logger.Info("astrotux agent started",
		slog.String("lock", d.lockPath),
		slog.Int("handlers", len(d.agent.Handlers())),
		slog.String(logging.FieldEventType, "daemon_started"),
	)
	if err := d.agent.Send(ctx, notifications.EventStart, nil); err != nil {
		d.logger.Warn("start notification failed",
			logging.Error(err),
			slog.String(logging.FieldEventType, "start_notification_failed"),
		)
	}
	return nil
}

// Stop emits a shutdown event, stops intake, flushes queued handlers within
// ctx, and releases the lock. It is a no-op when the daemon is not running.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return nil
	}

	if d.console != nil {
		d.console.SetActive(false)
	}
	if err := d.agent.Send(ctx, notifications.EventShutdown, nil); err != nil {
		d.logger.Warn("shutdown notification failed",
			logging.Error(err),
			slog.String(logging.FieldEventType, "shutdown_notification_failed"),
		)
	}
	if d.server != nil {
		d.server.Stop()
		d.server = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	err := d.agent.Close(ctx)
	if unlockErr := d.lock.Unlock(); unlockErr != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
	}
	d.running.Store(false)
	d.logger.Info("astrotux agent stopped", slog.String(logging.FieldEventType, "daemon_stopped"))
	return err
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		Handlers:     d.agent.Handlers(),
	}
	if d.server != nil {
		if addr := d.server.Addr(); addr != nil {
			status.APIAddress = addr.String()
		}
	}
	return status
}

func (d *Daemon) handleLine(ctx context.Context, line string) {
	if err := d.agent.Send(ctx, notifications.EventCommand, notifications.Params{"command": line}); err != nil {
		d.logger.Warn("command notification failed",
			slog.String("command", line),
			logging.Error(err),
			slog.String(logging.FieldEventType, "command_notification_failed"),
		)
	}
}

func historyLister(a *agent.Agent) api.HistoryLister {
	if store := a.History(); store != nil {
		return store
	}
	return nil
}
