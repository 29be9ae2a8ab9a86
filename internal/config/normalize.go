package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if err := c.normalizeNotifications(); err != nil {
		return err
	}
	c.normalizeHandlers()
	return nil
}

func (c *Config) normalizeLogging() error {
	var err error
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.BaseName = strings.TrimSpace(c.Logging.BaseName)
	if c.Logging.BaseName == "" {
		c.Logging.BaseName = defaultLogBaseName
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Color = strings.ToLower(strings.TrimSpace(c.Logging.Color))
	if c.Logging.Color == "" {
		c.Logging.Color = defaultLogColor
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeNotifications() error {
	c.Notifications.ServerName = strings.TrimSpace(c.Notifications.ServerName)
	if c.Notifications.ServerName == "" {
		c.Notifications.ServerName = defaultServerName
	}
	if strings.TrimSpace(c.Notifications.HistoryPath) != "" {
		var err error
		if c.Notifications.HistoryPath, err = expandPath(c.Notifications.HistoryPath); err != nil {
			return fmt.Errorf("notifications.history_path: %w", err)
		}
	}
	c.Notifications.APIBind = strings.TrimSpace(c.Notifications.APIBind)
	c.Notifications.APIToken = strings.TrimSpace(c.Notifications.APIToken)
	if c.Notifications.APIToken == "" {
		if value, ok := os.LookupEnv("ASTROTUX_API_TOKEN"); ok {
			c.Notifications.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Notifications.ShutdownTimeout <= 0 {
		c.Notifications.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}

func (c *Config) normalizeHandlers() {
	if len(c.Handlers) == 0 {
		c.Handlers = []Handler{DefaultHandler()}
	}
	envTopic, hasEnvTopic := os.LookupEnv("ASTROTUX_NTFY_TOPIC")
	for i := range c.Handlers {
		h := &c.Handlers[i]
		h.Name = strings.TrimSpace(h.Name)
		if h.Name == "" {
			h.Name = c.Notifications.ServerName
		}
		h.Type = strings.ToLower(strings.TrimSpace(h.Type))
		if h.Type == "" {
			h.Type = defaultHandlerType
		}
		events := h.Events[:0]
		for _, event := range h.Events {
			if trimmed := strings.ToLower(strings.TrimSpace(event)); trimmed != "" {
				events = append(events, trimmed)
			}
		}
		h.Events = events
		if h.Type == HandlerNtfy {
			h.Topic = strings.TrimSpace(h.Topic)
			if h.Topic == "" && hasEnvTopic {
				h.Topic = strings.TrimSpace(envTopic)
			}
			if h.RequestTimeout <= 0 {
				h.RequestTimeout = defaultNtfyRequestTimeout
			}
		}
		if h.DelayMS < 0 {
			h.DelayMS = 0
		}
	}
}
