package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/filescan/internal/models"
)

func TestFileLoggerCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "scan.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	if logger.Path() != path {
		t.Errorf("Path() = %q, want %q", logger.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestFileLoggerEmptyPath(t *testing.T) {
	if _, err := NewFileLogger(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFileLoggerWritesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")

	logger, err := NewFileLoggerWithLevel(path, "debug")
	if err != nil {
		t.Fatalf("NewFileLoggerWithLevel() error = %v", err)
	}

	logger.LogTrace("trace hidden")
	logger.LogDebug("skipping unreadable directory")
	logger.LogScanStart("/data", 4, 8)
	logger.LogSummary(models.ScanResult{
		RunID:        "abc",
		Root:         "/data",
		Files:        1234,
		Directories:  10,
		ListErrors:   1,
		TopLevelDirs: 4,
		Workers:      8,
		Duration:     2 * time.Second,
	})

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"=== filescan run log ===",
		"[DEBUG] skipping unreadable directory",
		"Scanning /data: 4 top-level directories (workers: 8)",
		"Run ID: abc",
		"Files found: 1234",
		"Unreadable directories: 1",
		"Throughput: 617 files/s",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in log:\n%s", want, content)
		}
	}
	if strings.Contains(content, "trace hidden") {
		t.Error("trace message must be filtered at debug level")
	}
}

func TestFileLoggerAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.LogInfo("run finished")
		logger.Close()
	}

	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "=== filescan run log ==="); n != 2 {
		t.Errorf("expected 2 run headers, got %d", n)
	}
}

func TestFileLoggerWriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	logger.LogInfo("after close")
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "after close") {
		t.Error("writes after Close must be dropped")
	}
}
