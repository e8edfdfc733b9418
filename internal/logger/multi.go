package logger

import "github.com/harrison/filescan/internal/models"

// Tee fans every event out to each of its loggers in order.
type Tee []Logger

// NewTee builds a Tee from the non-nil loggers.
func NewTee(loggers ...Logger) Tee {
	t := make(Tee, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			t = append(t, l)
		}
	}
	return t
}

func (t Tee) LogTrace(message string) {
	for _, l := range t {
		l.LogTrace(message)
	}
}

func (t Tee) LogDebug(message string) {
	for _, l := range t {
		l.LogDebug(message)
	}
}

func (t Tee) LogInfo(message string) {
	for _, l := range t {
		l.LogInfo(message)
	}
}

func (t Tee) LogWarn(message string) {
	for _, l := range t {
		l.LogWarn(message)
	}
}

func (t Tee) LogError(message string) {
	for _, l := range t {
		l.LogError(message)
	}
}

func (t Tee) LogScanStart(root string, topLevelDirs, workers int) {
	for _, l := range t {
		l.LogScanStart(root, topLevelDirs, workers)
	}
}

func (t Tee) LogSummary(result models.ScanResult) {
	for _, l := range t {
		l.LogSummary(result)
	}
}
