package config

import (
	"errors"
	"fmt"

	"astrotux/internal/notifications"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateHandlers()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color: unsupported value %q (expected auto, always or never)", c.Logging.Color)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.ServerName == "" {
		return errors.New("notifications.server_name must be set")
	}
	return nil
}

func (c *Config) validateHandlers() error {
	for i, h := range c.Handlers {
		field := fmt.Sprintf("handlers[%d]", i)
		switch h.Type {
		case HandlerConsole, HandlerLog:
		case HandlerNtfy:
			if h.Topic == "" {
				return fmt.Errorf("%s.topic is required for ntfy handlers (or set ASTROTUX_NTFY_TOPIC)", field)
			}
		case HandlerHistory:
			if c.Notifications.HistoryPath == "" {
				return fmt.Errorf("%s: history handlers require notifications.history_path", field)
			}
		default:
			return fmt.Errorf("%s.type: unsupported value %q", field, h.Type)
		}
		if h.Record && c.Notifications.HistoryPath == "" {
			return fmt.Errorf("%s.record requires notifications.history_path", field)
		}
		for _, event := range h.Events {
			if _, err := notifications.ParseEventKind(event); err != nil {
				return fmt.Errorf("%s.events: %w", field, err)
			}
		}
		for key := range h.Templates {
			if _, err := notifications.ParseEventKind(key); err != nil {
				return fmt.Errorf("%s.templates: %w", field, err)
			}
		}
	}
	return nil
}
