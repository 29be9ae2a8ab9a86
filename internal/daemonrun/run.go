package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"astrotux/internal/agent"
	"astrotux/internal/config"
	"astrotux/internal/daemon"
	"astrotux/internal/logging"
)

// Options configures agent process runtime behavior.
type Options struct {
	LogLevel string
	// Input feeds the console reader; nil disables it.
	Input io.Reader
	// Stdout receives console handler output; nil means os.Stdout.
	Stdout io.Writer
}

// Run starts the astrotux agent and blocks until ctx ends or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, logPath, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Logging.Dir, cfg.Logging.BaseName, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s.log link: %v\n", cfg.Logging.BaseName, err)
	}
	if _, err := logging.CleanupOldLogs(logger, cfg.Logging.Dir, cfg.Logging.BaseName+"_*.log", cfg.Logging.RetentionDays, logPath); err != nil {
		logger.Warn("log retention skipped", logging.Error(err))
	}
	logConfigSnapshot(logger, cfg, logPath)

	a, err := agent.New(cfg, logger, agent.WithStdout(opts.Stdout))
	if err != nil {
		logger.Error("build notification handlers", logging.Error(err))
		return err
	}

	var daemonOpts []daemon.Option
	if opts.Input != nil {
		daemonOpts = append(daemonOpts, daemon.WithInput(opts.Input))
	}
	d, err := daemon.New(cfg, a, logger, daemonOpts...)
	if err != nil {
		_ = a.Close(context.Background())
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			slog.String(logging.FieldEventType, "daemon_start_failed"),
			slog.String(logging.FieldErrorHint, "stop the other astrotux instance or use a different log dir"),
		)
		_ = a.Close(context.Background())
		return err
	}

	// Only the lock holder owns the pid file.
	pidPath := filepath.Join(cfg.Logging.Dir, "astrotux.pid")
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("write pid file", logging.Error(err))
	} else {
		defer os.Remove(pidPath)
	}

	<-signalCtx.Done()
	logger.Info("astrotux agent shutting down")

	// The signal context is already done; shutdown gets its own deadline.
	timeout := time.Duration(cfg.Notifications.ShutdownTimeout) * time.Second
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()
	return d.Stop(stopCtx)
}

// ensureCurrentLogPointer points <dir>/<base>.log at the active log file.
func ensureCurrentLogPointer(logDir, base, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	if base == "" {
		base = "astrotux"
	}
	current := filepath.Join(logDir, base+".log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config, logPath string) {
	if logger == nil || cfg == nil {
		return
	}
	types := make([]string, 0, len(cfg.Handlers))
	queued := 0
	for _, h := range cfg.Handlers {
		types = append(types, h.Type)
		if h.Queued {
			queued++
		}
	}
	logger.Info("configuration snapshot",
		slog.String(logging.FieldEventType, "config_snapshot"),
		slog.String("server_name", cfg.Notifications.ServerName),
		slog.String("handler_types", strings.Join(types, ",")),
		slog.Int("queued_handlers", queued),
		slog.String("api_bind", cfg.Notifications.APIBind),
		slog.Bool("api_token_present", cfg.Notifications.APIToken != ""),
		slog.String("log_path", logPath),
	)
}
