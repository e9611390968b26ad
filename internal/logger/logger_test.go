package logger

import (
	"os"
	"path/filepath"
	"scanstation/internal/config"
	"strings"
	"testing"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("camera %d opened", 0)
	l.Warning("decoder slow")
	l.Error("upload failed: %v", "timeout")

	checks := map[string]string{
		InfoFile:    "camera 0 opened",
		WarningFile: "decoder slow",
		ErrorFile:   "upload failed: timeout",
	}
	for file, want := range checks {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s does not contain %q: %s", file, want, data)
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Error("something broke")
	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty error log, got %q", data)
	}
}

func TestLogger_CleanLogsMissingFile(t *testing.T) {
	l := NewLogger(&config.Config{LogDirectory: t.TempDir()})

	if err := l.CleanLogs("missing.log"); err == nil {
		t.Error("Expected error when clearing a missing log file")
	}
}

func TestNewDiscard(t *testing.T) {
	l := NewDiscard()
	l.Info("ignored")
	l.Warning("ignored")
	l.Error("ignored")

	if err := l.CleanLogs(InfoFile); err != nil {
		t.Errorf("Expected no error from discard logger, got %v", err)
	}
}

func TestLevelFile(t *testing.T) {
	cases := map[string]string{
		"info":    InfoFile,
		"warning": WarningFile,
		"error":   ErrorFile,
	}
	for name, want := range cases {
		got, ok := LevelFile(name)
		if !ok || got != want {
			t.Errorf("LevelFile(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}

	if _, ok := LevelFile("debug"); ok {
		t.Error("Expected unknown level to be rejected")
	}
}

func TestLogger_ReportsCallerLine(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Warning("from the test")

	data, err := os.ReadFile(filepath.Join(dir, WarningFile))
	if err != nil {
		t.Fatalf("Failed to read warning log: %v", err)
	}
	if !strings.Contains(string(data), "logger_test.go:") {
		t.Errorf("Expected caller file in entry, got %q", data)
	}
}

func TestLogger_CloseKeepsConsole(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("before close")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	l.Info("after close")

	data, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		t.Fatalf("Failed to read info log: %v", err)
	}
	if strings.Contains(string(data), "after close") {
		t.Errorf("Entry written to a closed file: %q", data)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Second Close returned %v", err)
	}
}
