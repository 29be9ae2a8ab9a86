package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Handler types understood by the agent.
const (
	HandlerConsole = "console"
	HandlerLog     = "log"
	HandlerNtfy    = "ntfy"
	HandlerHistory = "history"
)

// Logging contains configuration for log output.
type Logging struct {
	Dir           string `toml:"dir" yaml:"dir"`
	BaseName      string `toml:"base_name" yaml:"base_name"`
	Level         string `toml:"level" yaml:"level"`
	Format        string `toml:"format" yaml:"format"`
	Color         string `toml:"color" yaml:"color"`
	Debug         bool   `toml:"debug" yaml:"debug"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// Notifications contains agent-wide notification settings.
type Notifications struct {
	// ServerName is injected as {name} by handlers without their own name.
	ServerName  string `toml:"server_name" yaml:"server_name"`
	HistoryPath string `toml:"history_path" yaml:"history_path"`
	// APIBind enables the HTTP event API when non-empty.
	APIBind string `toml:"api_bind" yaml:"api_bind"`
	// APIToken, when set, is required as a bearer token on API requests.
	APIToken string `toml:"api_token" yaml:"api_token"`
	// ShutdownTimeout bounds, in seconds, how long queued handlers may flush.
	ShutdownTimeout int `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Handler describes one notification handler.
type Handler struct {
	Name   string   `toml:"name" yaml:"name"`
	Type   string   `toml:"type" yaml:"type"`
	Queued bool     `toml:"queued" yaml:"queued"`
	Events []string `toml:"events" yaml:"events"`
	// Templates overrides individual message templates, keyed by event kind.
	Templates      map[string]string `toml:"templates" yaml:"templates"`
	Topic          string            `toml:"topic" yaml:"topic"`
	RequestTimeout int               `toml:"request_timeout" yaml:"request_timeout"`
	// Record also stores every delivered message in the history database.
	Record bool `toml:"record" yaml:"record"`
	// DelayMS inserts an artificial delay before each delivery.
	DelayMS int `toml:"delay_ms" yaml:"delay_ms"`
}

// Config encapsulates all configuration values for astrotux.
type Config struct {
	Logging       Logging       `toml:"logging" yaml:"logging"`
	Notifications Notifications `toml:"notifications" yaml:"notifications"`
	Handlers      []Handler     `toml:"handlers" yaml:"handlers"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/astrotux/config.toml")
}

// Load locates, parses, normalizes and validates a configuration file. It
// returns the config, the resolved path, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := toml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	if env := strings.TrimSpace(os.Getenv("ASTROTUX_CONFIG")); env != "" {
		return resolveConfigPath(env)
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("astrotux.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the history database's
// parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Dir}
	if c.Notifications.HistoryPath != "" {
		dirs = append(dirs, filepath.Dir(c.Notifications.HistoryPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
