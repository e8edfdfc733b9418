package models

import "time"

// ScanResult represents the aggregate result of one scan run
type ScanResult struct {
	RunID        string        // Unique identifier of the run
	Root         string        // Absolute root directory that was scanned
	Output       string        // Destination file the records were written to
	TopLevelDirs int           // Top-level directories that passed the prefix filter
	Workers      int           // Size of the worker pool
	Files        int64         // Records written to the output
	Directories  int64         // Directories enumerated (including unreadable ones)
	ListErrors   int64         // Directories that could not be listed
	EncodeErrors int64         // Files skipped because their path could not be encoded
	StartedAt    time.Time     // When seeding began
	FinishedAt   time.Time     // When the last worker exited
	Duration     time.Duration // FinishedAt - StartedAt
}

// FilesPerSecond returns the average throughput of the run.
// Returns 0 when no measurable time elapsed.
func (r ScanResult) FilesPerSecond() float64 {
	secs := r.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Files) / secs
}

// Empty reports whether no top-level directory matched the prefix filter.
func (r ScanResult) Empty() bool {
	return r.TopLevelDirs == 0
}
