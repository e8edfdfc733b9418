package models

import "time"

// RunRecord is a persisted summary of a finished scan, as stored in the run history.
type RunRecord struct {
	ID           int64
	RunID        string
	Root         string
	Prefix       string
	PrefixMode   string
	FileTypes    []string
	Output       string
	Files        int64
	Directories  int64
	ListErrors   int64
	EncodeErrors int64
	Workers      int
	DurationMs   int64
	StartedAt    time.Time
}

// NewRunRecord builds a RunRecord from a scan result and the filters that produced it.
func NewRunRecord(result ScanResult, prefix string, fileTypes []string) *RunRecord {
	return &RunRecord{
		RunID:        result.RunID,
		Root:         result.Root,
		Prefix:       prefix,
		FileTypes:    fileTypes,
		Output:       result.Output,
		Files:        result.Files,
		Directories:  result.Directories,
		ListErrors:   result.ListErrors,
		EncodeErrors: result.EncodeErrors,
		Workers:      result.Workers,
		DurationMs:   result.Duration.Milliseconds(),
		StartedAt:    result.StartedAt,
	}
}

// Duration returns the recorded run duration.
func (r *RunRecord) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}
