package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes files in dir matching pattern whose modification
// time is older than retentionDays. Paths listed in keep are never removed.
// A retentionDays value of 0 or less disables pruning. Individual removal
// failures are logged and skipped; the returned count covers removed files.
func CleanupOldLogs(logger *slog.Logger, dir, pattern string, retentionDays int, keep ...string) (int, error) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	if logger == nil {
		logger = NewNop()
	}
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.log"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("log retention pattern %q: %w", pattern, err)
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
			keepSet[abs] = struct{}{}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read log dir: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matched, _ := filepath.Match(pattern, entry.Name()); !matched {
			continue
		}
		fullPath, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if _, skip := keepSet[fullPath]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			logger.Warn("log retention remove failed; file remains",
				slog.String("path", fullPath),
				Error(err),
				slog.String(FieldEventType, "log_retention_failed"),
				slog.String(FieldErrorHint, "check file permissions and log dir ownership"),
			)
			continue
		}
		removed++
		logger.Info("log pruned",
			slog.String("path", fullPath),
			slog.String(FieldEventType, "log_pruned"),
		)
	}
	return removed, nil
}
