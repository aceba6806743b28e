package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  log.Level
	}{
		{"", log.InfoLevel},
		{"INFO", log.InfoLevel},
		{"debug", log.DebugLevel},
		{" Warn ", log.WarnLevel},
		{"error", log.ErrorLevel},
	}
	for _, tt := range tests {
		l, err := New(&bytes.Buffer{}, tt.level)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		if l.GetLevel() != tt.want {
			t.Errorf("New(%q) level = %v, want %v", tt.level, l.GetLevel(), tt.want)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupVerbose(t *testing.T) {
	var buf bytes.Buffer
	l, err := Setup(&buf, "error", true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer log.SetDefault(Discard())

	l.Debug("enriched", "rows", 3)
	if !strings.Contains(buf.String(), "rows=3") {
		t.Errorf("expected debug output with key/value, got %q", buf.String())
	}
}
