package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled for debug")
	}

	slog.New(h).Debug("debug only")
	if infoBuf.Len() != 0 {
		t.Fatal("info handler received a debug record")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler missed the debug record")
	}
}

func TestFanoutHandlerWithAttrsAndGroup(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("key", "value")}).WithGroup("grp"))
	logger.Info("test", slog.String("field", "x"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"key"`)) {
			t.Fatalf("buffer %d missing attr: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"grp"`)) {
			t.Fatalf("buffer %d missing group: %s", i, buf.String())
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	logger := TeeLogger(slog.New(slog.NewJSONHandler(&baseBuf, nil)), slog.NewJSONHandler(&teeBuf, nil))
	logger.Info("teed")
	if baseBuf.Len() == 0 || teeBuf.Len() == 0 {
		t.Fatal("expected output in both buffers")
	}

	teeBuf.Reset()
	TeeLogger(nil, slog.NewJSONHandler(&teeBuf, nil)).Info("no base")
	if teeBuf.Len() == 0 {
		t.Fatal("expected output with nil base")
	}
}

func TestLevelRangeHandlerSplitsStreams(t *testing.T) {
	var low, high bytes.Buffer
	errLevel := slog.LevelError
	h := newFanoutHandler(
		newLevelRangeHandler(slog.NewTextHandler(&low, &slog.HandlerOptions{Level: slog.LevelDebug}), slog.LevelDebug, &errLevel),
		newLevelRangeHandler(slog.NewTextHandler(&high, &slog.HandlerOptions{Level: slog.LevelDebug}), slog.LevelError, nil),
	)
	logger := slog.New(h)

	logger.Warn("careful")
	logger.Error("broken")

	if !bytes.Contains(low.Bytes(), []byte("careful")) || bytes.Contains(low.Bytes(), []byte("broken")) {
		t.Fatalf("low stream got %q", low.String())
	}
	if !bytes.Contains(high.Bytes(), []byte("broken")) || bytes.Contains(high.Bytes(), []byte("careful")) {
		t.Fatalf("high stream got %q", high.String())
	}
}
