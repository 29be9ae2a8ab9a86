package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestPrettyHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false, false)).
		With(slog.String(FieldComponent, "notifications"))

	logger.Info("notification delivery failed", slog.String("handler", "ntfy"), Error(errors.New("timeout after 10s")))

	line := strings.TrimSuffix(buf.String(), "\n")
	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[notifications/INFO\] notification delivery failed handler=ntfy error="timeout after 10s"$`)
	if !pattern.MatchString(line) {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestPrettyHandlerDefaultsComponentAndColors(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false, true))

	logger.Error("server crashed")

	out := buf.String()
	if !strings.Contains(out, ansiRed+"[astrotux/ERROR]"+ansiReset) {
		t.Fatalf("expected red header, got %q", out)
	}
	if !strings.Contains(out, ansiRed+"server crashed"+ansiReset) {
		t.Fatalf("expected red message, got %q", out)
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false, false)).WithGroup("event")

	logger.Warn("queued", slog.String("kind", "crash"))

	if !strings.Contains(buf.String(), "[astrotux/WARNING] queued event.kind=crash") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrettyHandlerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, level, false, false))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed, got %q", buf.String())
	}
}

func TestPrettyHandlerJoinsListsAndCapsLongValues(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false, false))

	long := strings.Repeat("x", maxConsoleValue+40)
	logger.Info("handler registered",
		slog.Any("events", []string{"start", "crash"}),
		slog.String("message", long),
	)

	out := buf.String()
	if !strings.Contains(out, "events=start,crash") {
		t.Fatalf("expected joined event list, got %q", out)
	}
	if !strings.Contains(out, "message="+strings.Repeat("x", maxConsoleValue)+"…") {
		t.Fatalf("expected capped message, got %q", out)
	}
	if strings.Contains(out, strings.Repeat("x", maxConsoleValue+1)) {
		t.Fatalf("message not capped: %q", out)
	}
}
