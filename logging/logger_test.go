package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/tsawler/regiontag/logging"
)

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logging.For("flow").Debug("test message", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "test message") {
		t.Error("expected SetLogger to configure the package logger")
	}
	if !strings.Contains(out, "component=flow") {
		t.Errorf("expected component attribute, got %q", out)
	}
}

func TestSetLogger_Nil(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)

	l := logging.Logger()
	if l == nil {
		t.Fatal("expected non-nil logger after SetLogger(nil)")
	}
	if l.Handler() != slog.DiscardHandler {
		t.Error("expected discard handler after SetLogger(nil)")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			logging.SetLogger(slog.New(logging.NewBufferedLogHandler(nil)))
		}()
		go func() {
			defer wg.Done()
			logging.Logger().Info("concurrent")
		}()
	}
	wg.Wait()
}

func TestNewCLILogger(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv(logging.DebugEnv, "")
	l := logging.NewCLILogger(&buf, false)
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug output should be disabled by default")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info output missing")
	}

	buf.Reset()
	t.Setenv(logging.DebugEnv, "1")
	logging.NewCLILogger(&buf, false).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug env should enable debug output")
	}
}

func TestBufferedLogHandler_CapturesOutput(t *testing.T) {
	handler := logging.NewBufferedLogHandler(nil)
	l := slog.New(handler).With("component", "tables")

	l.Debug("cell extracted", slog.Int("row", 1))
	l.Info("table already processed", slog.String("table_id", "t1"))
	l.Warn("cell failed")

	if !handler.Contains("table already processed") {
		t.Error("expected captured message")
	}
	if !handler.Contains(`"table_id":"t1"`) {
		t.Errorf("expected attribute in output, got %s", handler.String())
	}

	entries := handler.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Attrs["component"] != "tables" || entries[0].Attrs["row"] != "1" {
		t.Errorf("unexpected attrs %v", entries[0].Attrs)
	}
	if handler.Count(slog.LevelWarn) != 1 {
		t.Errorf("Count(Warn) = %d, want 1", handler.Count(slog.LevelWarn))
	}

	handler.Reset()
	if handler.String() != "" || len(handler.Entries()) != 0 {
		t.Error("expected empty handler after Reset")
	}
}

func TestBufferedLogHandler_LevelAndGroup(t *testing.T) {
	handler := logging.NewBufferedLogHandler(&slog.HandlerOptions{Level: slog.LevelWarn})
	l := slog.New(handler).WithGroup("job")

	l.Info("ignored")
	l.Warn("kept", "id", "x")

	entries := handler.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Attrs["job.id"] != "x" {
		t.Errorf("expected grouped attribute, got %v", entries[0].Attrs)
	}
}
