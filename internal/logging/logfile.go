package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
)

const (
	logfileDateLayout = "2006-01-02"
	maxLogfileSuffix  = 1_000_000
	logDirLockName    = ".astrotux-logs.lock"
)

var (
	// ErrNotDirectory is returned when the log path exists but is not a
	// directory.
	ErrNotDirectory = errors.New("log path is not a directory")
	// ErrLogfilesExhausted is returned when every numbered candidate for
	// today's log file already exists.
	ErrLogfilesExhausted = errors.New("all numbered log file names are taken")
)

// LogfilePath returns the first unused file name of the form
// dir/<base>_<YYYY-MM-DD>.<ext>, falling back to
// dir/<base>_<YYYY-MM-DD>_<n>.<ext> for n = 1, 2, ... An empty base omits the
// "<base>_" prefix. The file is not created.
func LogfilePath(dir, base, ext string) (string, error) {
	return logfilePathAt(dir, base, ext, time.Now())
}

func logfilePathAt(dir, base, ext string, day time.Time) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
		return "", fmt.Errorf("stat log dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "log"
	}
	stem := day.Format(logfileDateLayout)
	if base = strings.TrimSpace(base); base != "" {
		stem = base + "_" + stem
	}

	candidate := filepath.Join(dir, stem+"."+ext)
	for i := 1; exists(candidate); i++ {
		if i > maxLogfileSuffix {
			return "", fmt.Errorf("%w: %s", ErrLogfilesExhausted, filepath.Join(dir, stem))
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d.%s", stem, i, ext))
	}
	return candidate, nil
}

// CreateLogfile picks a name with LogfilePath and creates the empty file
// while holding an advisory lock on the directory, so concurrent agents
// writing to the same directory never share a file.
func CreateLogfile(dir, base, ext string) (string, error) {
	if _, err := LogfilePath(dir, base, ext); err != nil {
		return "", err
	}

	lock := flock.New(filepath.Join(dir, logDirLockName))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock log dir: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	path, err := LogfilePath(dir, base, ext)
	if err != nil {
		return "", err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create log file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("create log file %s: %w", path, err)
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
