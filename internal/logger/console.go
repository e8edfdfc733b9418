// Package logger provides logging implementations for filescan runs.
//
// The logger package offers leveled message logging plus scan-level events
// (scan start, final summary) and a live progress line. Implementations are
// thread-safe and support various output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/harrison/filescan/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is implemented by every logger in this package.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogScanStart(root string, topLevelDirs, workers int)
	LogSummary(result models.ScanResult)
}

// ConsoleLogger logs scan progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a standard stream attached to a TTY.
// Honors NO_COLOR through color.NoColor.
func isTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	return IsTerminalFile(f)
}

// IsTerminalFile reports whether f is a terminal (including Cygwin/MSYS ptys).
func IsTerminalFile(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ValidLogLevel reports whether level names a known log level.
func ValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if ValidLogLevel(normalized) {
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogScanStart logs the start of a scan at INFO level.
// Format: "[HH:MM:SS] Scanning <root>: <n> top-level directories, <w> workers"
func (cl *ConsoleLogger) LogScanStart(root string, topLevelDirs, workers int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := root
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(root)
	}
	message := fmt.Sprintf("[%s] Scanning %s: %s top-level directories, %d workers\n",
		timestamp(), name, humanize.Comma(int64(topLevelDirs)), workers)

	cl.writer.Write([]byte(message))
}

// LogSummary logs the scan statistics at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.ScanResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var output string

	header := "=== Scan Summary ==="
	filesLine := fmt.Sprintf("Files found: %s", humanize.Comma(result.Files))
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		filesLine = color.New(color.FgGreen).Sprint(filesLine)
	}

	output = fmt.Sprintf("[%s] %s\n", ts, header)
	if result.RunID != "" {
		output += fmt.Sprintf("[%s] Run: %s\n", ts, result.RunID)
	}
	output += fmt.Sprintf("[%s] %s\n", ts, filesLine)
	output += fmt.Sprintf("[%s] Directories scanned: %s\n", ts, humanize.Comma(result.Directories))
	output += fmt.Sprintf("[%s] Top-level directories: %s\n", ts, humanize.Comma(int64(result.TopLevelDirs)))

	failures := summaryFailures(result)
	if failures != "" {
		if cl.colorOutput {
			failures = color.New(color.FgYellow).Sprint(failures)
		}
		output += fmt.Sprintf("[%s] %s\n", ts, failures)
	}

	output += fmt.Sprintf("[%s] Elapsed: %s\n", ts, formatElapsed(result.Duration))
	output += fmt.Sprintf("[%s] Throughput: %s files/s\n", ts, humanize.CommafWithDigits(result.FilesPerSecond(), 1))
	if result.Output != "" {
		output += fmt.Sprintf("[%s] Output: %s\n", ts, result.Output)
	}

	cl.writer.Write([]byte(output))
}

// summaryFailures renders the failure counters, or "" when there were none.
func summaryFailures(result models.ScanResult) string {
	if result.ListErrors == 0 && result.EncodeErrors == 0 {
		return ""
	}
	return fmt.Sprintf("Skipped: %s unreadable directories, %s unencodable paths",
		humanize.Comma(result.ListErrors), humanize.Comma(result.EncodeErrors))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatElapsed renders sub-minute durations with millisecond precision and
// longer ones through formatDuration.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
	return formatDuration(d)
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                     {}
func (n *NoOpLogger) LogDebug(string)                     {}
func (n *NoOpLogger) LogInfo(string)                      {}
func (n *NoOpLogger) LogWarn(string)                      {}
func (n *NoOpLogger) LogError(string)                     {}
func (n *NoOpLogger) LogScanStart(string, int, int)       {}
func (n *NoOpLogger) LogSummary(result models.ScanResult) {}
