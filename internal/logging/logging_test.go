package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level        string
		debugEnabled bool
		warnEnabled  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", false, true},
		{"", false, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		logger := NewLogger(tt.level)
		if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debugEnabled {
			t.Errorf("NewLogger(%q) debug enabled = %v, want %v", tt.level, got, tt.debugEnabled)
		}
		if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.warnEnabled {
			t.Errorf("NewLogger(%q) warn enabled = %v, want %v", tt.level, got, tt.warnEnabled)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got := SanitizePath(home + "/Pictures/library")
	if got != "~/Pictures/library" {
		t.Errorf("SanitizePath = %q, want home masked", got)
	}
	if strings.Contains(got, home) {
		t.Errorf("SanitizePath = %q still contains the home directory", got)
	}

	if got := SanitizePath("/var/lib/photos"); got != "/var/lib/photos" {
		t.Errorf("SanitizePath changed a non-home path: %q", got)
	}
}
