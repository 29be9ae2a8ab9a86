package daemon_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"astrotux/internal/agent"
	"astrotux/internal/config"
	"astrotux/internal/daemon"
	"astrotux/internal/logging"
	"astrotux/internal/testsupport"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newDaemon(t *testing.T, cfg *config.Config, out io.Writer, opts ...daemon.Option) *daemon.Daemon {
	t.Helper()
	a, err := agent.New(cfg, logging.NewNop(), agent.WithStdout(out))
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	d, err := daemon.New(cfg, a, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return d
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func TestStartStopEmitsLifecycleEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var out syncBuffer
	d := newDaemon(t, cfg, &out)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected running status")
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d.Status().Running {
		t.Fatal("expected stopped status")
	}

	want := "[Server] Server started!\n[Server] Server shutdown!\n"
	if got := out.String(); got != want {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStartCreatesMissingLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Dir = filepath.Join(t.TempDir(), "nested", "logs")
	d := newDaemon(t, cfg, io.Discard)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	lockPath := d.Status().LockFilePath
	if filepath.Dir(lockPath) != cfg.Logging.Dir {
		t.Fatalf("lock %q not under %q", lockPath, cfg.Logging.Dir)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg, io.Discard)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := newDaemon(t, cfg, io.Discard)
	if err := second.Start(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestConsoleLinesBecomeCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var out syncBuffer
	pr, pw := io.Pipe()
	d := newDaemon(t, cfg, &out, daemon.WithInput(pr))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := io.WriteString(pw, "whitelist add Ann\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(out.String(), "[Server] Command executed: whitelist add Ann")
	})
	_ = pw.Close()
}

func TestAPIServedWhenBound(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBind("127.0.0.1:0"))
	var out syncBuffer
	d := newDaemon(t, cfg, &out)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := d.Status().APIAddress
	if addr == "" {
		t.Fatal("expected API address")
	}
	resp, err := http.Post("http://"+addr+"/api/events/message", "application/json", strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if !strings.Contains(out.String(), "[Server] hello\n") {
		t.Fatalf("expected message in output, got %q", out.String())
	}
}
