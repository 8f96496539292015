package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := InitLogger("info", logFile); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	Log.Infow("refresh finished", "mods", 3)
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "refresh finished") {
		t.Errorf("Log file does not contain message, got %q", string(content))
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if err := InitLogger("chatty", filepath.Join(t.TempDir(), "test.log")); err == nil {
		t.Error("Expected error for unknown level")
	}
}
