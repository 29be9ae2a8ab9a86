package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"astrotux/internal/logging"
	"astrotux/internal/testsupport"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "astrotux_2020-01-01.log")
	current := filepath.Join(dir, "astrotux_2020-01-02.log")
	fresh := filepath.Join(dir, "astrotux_2099-01-01.log")
	other := filepath.Join(dir, "notes.txt")
	age := 90 * 24 * time.Hour
	for _, path := range []string{old, current, other} {
		testsupport.Touch(t, path, age)
	}
	testsupport.Touch(t, fresh, 0)

	removed, err := logging.CleanupOldLogs(logging.NewNop(), dir, "astrotux_*.log", 30, current)
	if err != nil {
		t.Fatalf("CleanupOldLogs returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	removed, err := logging.CleanupOldLogs(nil, t.TempDir(), "", 0)
	if err != nil || removed != 0 {
		t.Fatalf("expected no-op, got %d, %v", removed, err)
	}
}
