package config

const (
	defaultLogDir             = "~/.local/share/astrotux/logs"
	defaultLogBaseName        = "astrotux"
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
	defaultLogColor           = "auto"
	defaultLogRetentionDays   = 30
	defaultServerName         = "Server"
	defaultHistoryPath        = "~/.local/share/astrotux/history.db"
	defaultShutdownTimeout    = 10
	defaultHandlerType        = HandlerConsole
	defaultNtfyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults. Handlers is
// left empty; Load installs a single console handler when the file
// configures none.
func Default() Config {
	return Config{
		Logging: Logging{
			Dir:           defaultLogDir,
			BaseName:      defaultLogBaseName,
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			Color:         defaultLogColor,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			ServerName:      defaultServerName,
			HistoryPath:     defaultHistoryPath,
			ShutdownTimeout: defaultShutdownTimeout,
		},
	}
}

// DefaultHandler is the handler used when none are configured.
func DefaultHandler() Handler {
	return Handler{Type: defaultHandlerType}
}
