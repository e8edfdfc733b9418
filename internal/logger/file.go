package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harrison/filescan/internal/models"
)

// FileLogger appends scan events to a log file.
// Each run starts with a header block so consecutive runs in the same file
// stay distinguishable. It is thread-safe and never colorizes output.
type FileLogger struct {
	path     string
	runLog   *os.File
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger opens (or creates) the log file at path for appending.
// Parent directories are created as needed. Uses default log level "info".
func NewFileLogger(path string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(path, "info")
}

// NewFileLoggerWithLevel is NewFileLogger with an explicit log level.
func NewFileLoggerWithLevel(path string, logLevel string) (*FileLogger, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := &FileLogger{
		path:     path,
		runLog:   file,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== filescan run log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.path
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message)
	fl.writeRunLog(formatted)
}

// LogScanStart logs the root, seed count and pool size at INFO level.
func (fl *FileLogger) LogScanStart(root string, topLevelDirs, workers int) {
	if !fl.shouldLog("info") {
		return
	}

	message := fmt.Sprintf(
		"[%s] Scanning %s: %d top-level directories (workers: %d)\n",
		timestamp(),
		root,
		topLevelDirs,
		workers,
	)

	fl.writeRunLog(message)
}

// LogSummary logs the final statistics at INFO level.
// Counts are written unformatted so the log stays easy to grep.
func (fl *FileLogger) LogSummary(result models.ScanResult) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var b strings.Builder

	fmt.Fprintf(&b, "\n[%s] === Scan Summary ===\n", ts)
	fmt.Fprintf(&b, "[%s] Run ID: %s\n", ts, result.RunID)
	fmt.Fprintf(&b, "[%s] Root: %s\n", ts, result.Root)
	if result.Output != "" {
		fmt.Fprintf(&b, "[%s] Output: %s\n", ts, result.Output)
	}
	fmt.Fprintf(&b, "[%s] Top-level directories: %d\n", ts, result.TopLevelDirs)
	fmt.Fprintf(&b, "[%s] Directories scanned: %d\n", ts, result.Directories)
	fmt.Fprintf(&b, "[%s] Files found: %d\n", ts, result.Files)
	fmt.Fprintf(&b, "[%s] Unreadable directories: %d\n", ts, result.ListErrors)
	fmt.Fprintf(&b, "[%s] Unencodable paths: %d\n", ts, result.EncodeErrors)
	fmt.Fprintf(&b, "[%s] Workers: %d\n", ts, result.Workers)
	fmt.Fprintf(&b, "[%s] Duration: %.3fs\n", ts, result.Duration.Seconds())
	fmt.Fprintf(&b, "[%s] Throughput: %s files/s\n", ts, humanize.FtoaWithDigits(result.FilesPerSecond(), 1))

	fl.writeRunLog(b.String())
}

// Close flushes and closes the log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the log file.
// Writes after Close are dropped.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
