package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestInitWithWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("analysis").Info(context.Background(), "analysis completed",
		String("id", "a-1"),
		Int("score", 72),
		Bool("duplicate", false),
		Duration("took", 15*time.Millisecond),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"analysis completed", "analysis.id=a-1", "analysis.score=72", "source=", "logger_test.go"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}

	if err := InitWithWriter(nil); err == nil {
		t.Error("expected error for nil writer")
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	defer SetLevelString("info") //nolint:errcheck

	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("info record written at warn level")
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Error("warn record missing")
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNamedOrDiscard(t *testing.T) {
	mu.Lock()
	saved := global
	global = nil
	mu.Unlock()
	defer func() {
		mu.Lock()
		global = saved
		mu.Unlock()
	}()

	l := NamedOrDiscard("keywords")
	if l == nil {
		t.Fatal("expected a discard logger")
	}
	l.Debug(context.Background(), "dropped")
}
