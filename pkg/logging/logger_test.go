// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// Tests for the warroom logging package.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.config.Service != "warroom" {
		t.Errorf("default service = %q, want %q", logger.config.Service, "warroom")
	}
	// Must not panic.
	logger.Info("test message", "key", "value")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on file-less logger: %v", err)
	}
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "analysis",
		Quiet:   true,
	})
	logger.Info("collection complete", "conflict", "US-Iran", "score", 49.5)
	logger.Debug("filtered below level")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 log file, got %d (err=%v)", len(entries), err)
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "analysis_") || !strings.HasSuffix(name, ".log") {
		t.Errorf("unexpected log filename %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "collection complete") {
		t.Errorf("log file missing info message: %s", content)
	}
	if !strings.Contains(content, `"service":"analysis"`) {
		t.Errorf("log file missing service attribute: %s", content)
	}
	if strings.Contains(content, "filtered below level") {
		t.Errorf("debug message should have been filtered: %s", content)
	}
}

func TestSinkReceivesEntries(t *testing.T) {
	sink := NewBufferedSink()
	logger := New(Config{Level: LevelInfo, Service: "analysis", Quiet: true, Sink: sink})

	logger.Info("pipeline started", "conflict", "Ukraine")
	logger.Debug("below level") // filtered from sink
	logger.Warn("collector degraded", "domain", "market")

	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 sink entries, got %d", len(entries))
	}
	if entries[0].Message != "pipeline started" {
		t.Errorf("first entry = %q", entries[0].Message)
	}
	if entries[0].Attrs["conflict"] != "Ukraine" {
		t.Errorf("first entry attrs = %v", entries[0].Attrs)
	}
	if entries[1].Level != LevelWarn {
		t.Errorf("second entry level = %v, want Warn", entries[1].Level)
	}
}

func TestWithAttributes(t *testing.T) {
	sink := NewBufferedSink()
	logger := New(Config{Level: LevelInfo, Quiet: true, Sink: sink})

	child := logger.With("run_id", "abc123")
	if child == nil {
		t.Fatal("With() returned nil")
	}
	// Child shares the sink via config.
	child.Info("step done")
	if len(sink.Entries()) != 1 {
		t.Fatalf("expected child log to reach shared sink")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	got := expandPath("~/logs")
	want := filepath.Join(home, "logs")
	if got != want {
		t.Errorf("expandPath(~/logs) = %q, want %q", got, want)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("absolute path modified: %q", got)
	}
}

func TestArgsToMap(t *testing.T) {
	m := argsToMap([]any{"a", 1, "b", "two", 3, "dropped-key-not-string"})
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("argsToMap = %v", m)
	}
}
