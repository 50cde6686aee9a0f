package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	if err := Init(path, log.DebugLevel); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(Close)

	WithPrefix("store").Warn("refresh failed", "group", "party")
	Debug("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "store") || !strings.Contains(text, "refresh failed") || !strings.Contains(text, "group=party") {
		t.Fatalf("unexpected log content: %q", text)
	}
	if !strings.Contains(text, "hello") {
		t.Fatalf("debug line missing: %q", text)
	}
}

func TestClose_FallsBackToDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Init(path, log.InfoLevel); err != nil {
		t.Fatalf("init: %v", err)
	}
	Close()
	Info("after close")
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "after close") {
		t.Fatalf("logger should discard after close")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"":      log.InfoLevel,
		"debug": log.DebugLevel,
		"warn":  log.WarnLevel,
		"bogus": log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v want %v", in, got, want)
		}
	}
}
