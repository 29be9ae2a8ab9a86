package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"astrotux/internal/config"
)

// Output targets understood by Options.OutputPaths besides file paths.
const (
	// OutputConsole splits records by level: up to WARN on stdout, ERROR and
	// above on stderr.
	OutputConsole = "console"
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	// Color is "auto" (terminals only), "always" or "never". File outputs are
	// never colored.
	Color       string
	Development bool
}

// New constructs a slog logger writing to every configured output.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	build := func(w io.Writer, color bool) slog.Handler {
		if format == "json" {
			return newJSONHandler(w, levelVar, addSource)
		}
		return newPrettyHandler(w, levelVar, addSource, color)
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{OutputConsole}
	}

	seen := make(map[string]struct{}, len(outputs))
	handlers := make([]slog.Handler, 0, len(outputs)+1)
	for _, raw := range outputs {
		target := strings.TrimSpace(raw)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}

		switch target {
		case OutputConsole:
			errLevel := slog.LevelError
			handlers = append(handlers,
				newLevelRangeHandler(build(os.Stdout, colorFor(opts.Color, os.Stdout)), slog.LevelDebug, &errLevel),
				newLevelRangeHandler(build(os.Stderr, colorFor(opts.Color, os.Stderr)), slog.LevelError, nil),
			)
		case OutputStdout:
			handlers = append(handlers, build(os.Stdout, colorFor(opts.Color, os.Stdout)))
		case OutputStderr:
			handlers = append(handlers, build(os.Stderr, colorFor(opts.Color, os.Stderr)))
		default:
			file, err := openLogFile(target)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, build(file, false))
		}
	}

	return slog.New(newFanoutHandler(handlers...)), nil
}

// NewFromConfig builds the agent logger: console output plus, when a log
// directory is configured, a fresh dated log file inside it. The chosen log
// file path is returned (empty when file logging is disabled).
func NewFromConfig(cfg *config.Config) (*slog.Logger, string, error) {
	if cfg == nil {
		logger, err := New(Options{Level: "info", Format: "console"})
		return logger, "", err
	}

	level := cfg.Logging.Level
	if cfg.Logging.Debug {
		level = "debug"
	}

	outputs := []string{OutputConsole}
	var logPath string
	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("ensure log directory: %w", err)
		}
		path, err := CreateLogfile(dir, cfg.Logging.BaseName, "log")
		if err != nil {
			return nil, "", err
		}
		logPath = path
		outputs = append(outputs, path)
	}

	logger, err := New(Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Color:       cfg.Logging.Color,
	})
	if err != nil {
		return nil, "", err
	}
	return logger, logPath, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func colorFor(mode string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	default:
		return shouldColorize(w)
	}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case FieldComponent:
				attr.Key = "logger"
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
