package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func newTestWatcher(t *testing.T, body string) (*LevelWatcher, *slog.LevelVar, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	level := new(slog.LevelVar)
	w, err := NewLevelWatcher(path, level, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewLevelWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	w.debounce = 10 * time.Millisecond
	return w, level, path
}

func TestLevelWatcher_AppliesNewLevel(t *testing.T) {
	w, level, path := newTestWatcher(t, "[log]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for level.Level() != slog.LevelDebug {
		if time.Now().After(deadline) {
			t.Fatalf("level = %v after rewrite, want DEBUG", level.Level())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLevelWatcher_InvalidLevelKeepsCurrent(t *testing.T) {
	w, level, path := newTestWatcher(t, "[log]\nlevel = \"info\"\n")
	level.Set(slog.LevelWarn)

	if err := os.WriteFile(path, []byte("[log]\nlevel = \"verbose\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := w.reload(); err == nil {
		t.Fatal("reload() expected error for invalid level")
	}
	if level.Level() != slog.LevelWarn {
		t.Errorf("level = %v, want WARN unchanged", level.Level())
	}
}

func TestLevelWatcher_MalformedFileKeepsCurrent(t *testing.T) {
	w, level, path := newTestWatcher(t, "[log]\nlevel = \"info\"\n")
	level.Set(slog.LevelError)

	if err := os.WriteFile(path, []byte("[log\nlevel ="), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := w.reload(); err == nil {
		t.Fatal("reload() expected parse error")
	}
	if level.Level() != slog.LevelError {
		t.Errorf("level = %v, want ERROR unchanged", level.Level())
	}
}

func TestLevelWatcher_IgnoresOtherFiles(t *testing.T) {
	w, level, path := newTestWatcher(t, "[log]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	other := filepath.Join(filepath.Dir(path), "notes.toml")
	if err := os.WriteFile(other, []byte("[log]\nlevel = \"debug\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if level.Level() != slog.LevelInfo {
		t.Errorf("level = %v, want INFO", level.Level())
	}
}
