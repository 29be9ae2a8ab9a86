// Package logging builds the structured slog loggers used by the astrotux
// agent.
//
// Console output mirrors a classic terminal log: a short timestamp, the
// component and level in brackets, then the message and its fields. Records up
// to WARN go to stdout and ERROR goes to stderr, colored by level when the
// stream is a terminal. Log files receive the same records uncolored, or as
// JSON when the json format is selected.
//
// LogfilePath picks a dated, non-clobbering file name for each run, and
// CleanupOldLogs prunes files past the retention window. Loggers are returned
// to the caller and injected explicitly; nothing here mutates slog's default
// logger.
package logging
