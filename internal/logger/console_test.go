package logger

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/filescan/internal/models"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("color output must be off for non-terminal writers")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		// Must not panic
		logger.LogInfo("discarded")
		logger.LogScanStart("/data", 1, 1)
		logger.LogSummary(models.ScanResult{})
	})
}

func TestLogMessageFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogWarn("skipping file: bad path")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] skipping file: bad path\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected format: %q", buf.String())
	}
}

func TestLogScanStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogScanStart("/data", 1234, 8)

	want := "Scanning /data: 1,234 top-level directories, 8 workers"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in %q", want, buf.String())
	}
}

func TestLogScanStartFilteredAtWarn(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "warn")

	logger.LogScanStart("/data", 3, 2)
	logger.LogSummary(models.ScanResult{Files: 1})

	if buf.Len() != 0 {
		t.Errorf("expected no output at warn level, got %q", buf.String())
	}
}

func TestLogSummary(t *testing.T) {
	tests := []struct {
		name        string
		result      models.ScanResult
		contains    []string
		notContains []string
	}{
		{
			name: "typical run",
			result: models.ScanResult{
				RunID:        "run-1",
				Output:       "/out/file_list.csv",
				TopLevelDirs: 3,
				Files:        1500000,
				Directories:  42000,
				Duration:     2 * time.Second,
			},
			contains: []string{
				"=== Scan Summary ===",
				"Run: run-1",
				"Files found: 1,500,000",
				"Directories scanned: 42,000",
				"Top-level directories: 3",
				"Elapsed: 2.000s",
				"Throughput: 750,000 files/s",
				"Output: /out/file_list.csv",
			},
			notContains: []string{"Skipped"},
		},
		{
			name: "with failures",
			result: models.ScanResult{
				Files:        10,
				ListErrors:   2,
				EncodeErrors: 1,
				Duration:     time.Second,
			},
			contains: []string{"Skipped: 2 unreadable directories, 1 unencodable paths"},
		},
		{
			name:     "zero duration",
			result:   models.ScanResult{Files: 5},
			contains: []string{"Throughput: 0 files/s", "Elapsed: 0.000s"},
		},
		{
			name:     "long run",
			result:   models.ScanResult{Files: 90, Duration: 90 * time.Second},
			contains: []string{"Elapsed: 1m30s", "Throughput: 1 files/s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, "info")
			logger.LogSummary(tt.result)

			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("expected %q in output:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(output, unwanted) {
					t.Errorf("did not expect %q in output:\n%s", unwanted, output)
				}
			}
		})
	}
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.LogInfo(fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "[INFO] message ") {
			t.Errorf("interleaved or malformed line: %q", line)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{5 * time.Second, "5s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m30s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTee(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	tee := NewTee(NewConsoleLogger(a, "info"), nil, NewConsoleLogger(b, "debug"))

	if len(tee) != 2 {
		t.Fatalf("nil loggers must be dropped, got %d", len(tee))
	}

	tee.LogDebug("debug line")
	tee.LogInfo("info line")
	tee.LogScanStart("/root", 1, 1)
	tee.LogSummary(models.ScanResult{Files: 7})

	if strings.Contains(a.String(), "debug line") {
		t.Error("first logger must filter debug")
	}
	if !strings.Contains(b.String(), "debug line") {
		t.Error("second logger must see debug")
	}
	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, "info line") || !strings.Contains(out, "Files found: 7") {
			t.Errorf("missing fan-out output: %q", out)
		}
	}
}

func TestNoOpLoggerSatisfiesLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.LogInfo("x")
	l.LogSummary(models.ScanResult{})
}
