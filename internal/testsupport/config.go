package testsupport

import (
	"path/filepath"
	"testing"

	"astrotux/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It starts with a single console handler and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Notifications.HistoryPath = filepath.Join(base, "history.db")
	cfgVal.Notifications.ShutdownTimeout = 2
	cfgVal.Handlers = []config.Handler{{Type: config.HandlerConsole}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	for i := range builder.cfg.Handlers {
		if builder.cfg.Handlers[i].Name == "" {
			builder.cfg.Handlers[i].Name = builder.cfg.Notifications.ServerName
		}
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithHandlers replaces the configured handler list. Unnamed handlers take
// the server name once all options have run.
func WithHandlers(handlers ...config.Handler) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Handlers = append([]config.Handler(nil), handlers...)
	}
}

// WithServerName overrides the server name injected as {name}.
func WithServerName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.ServerName = name
	}
}

// WithAPIBind enables the event API on the given address.
func WithAPIBind(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.APIBind = addr
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.Dir)
}
