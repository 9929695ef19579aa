package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitLoggerLevel(t *testing.T) {
	if err := InitLogger("debug", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", Log.GetLevel())
	}

	if err := InitLogger("nonsense", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected fallback to info, got %s", Log.GetLevel())
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "redranks.log")
	if err := InitLogger("info", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Log.Info("hello from test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}
