package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressStats is one sample of a running scan.
type ProgressStats struct {
	Files       int64
	Directories int64
	Pending     int
	Elapsed     time.Duration
}

// ProgressLine redraws a single status line in place using carriage returns.
// The total amount of work is unknown while scanning, so it shows counts and
// rate rather than a percentage bar.
type ProgressLine struct {
	w           io.Writer
	enableColor bool
	lastWidth   int
	active      bool
	mu          sync.Mutex
}

// NewProgressLine creates a ProgressLine writing to w.
func NewProgressLine(w io.Writer, enableColor bool) *ProgressLine {
	return &ProgressLine{
		w:           w,
		enableColor: enableColor,
	}
}

// Render formats stats without writing them.
func (pl *ProgressLine) Render(stats ProgressStats) string {
	var rate float64
	if secs := stats.Elapsed.Seconds(); secs > 0 {
		rate = float64(stats.Files) / secs
	}

	result := fmt.Sprintf("Scanning: %s files, %s dirs, %s queued (%s files/s, %s)",
		humanize.Comma(stats.Files),
		humanize.Comma(stats.Directories),
		humanize.Comma(int64(stats.Pending)),
		humanize.CommafWithDigits(rate, 0),
		formatDuration(stats.Elapsed),
	)

	if pl.enableColor {
		result = fmt.Sprintf("\033[36m%s\033[0m", result) // Cyan for in-progress
	}
	return result
}

// Update redraws the line with stats.
func (pl *ProgressLine) Update(stats ProgressStats) {
	line := pl.Render(stats)

	pl.mu.Lock()
	defer pl.mu.Unlock()

	// Pad over leftovers of a longer previous line
	pad := ""
	if n := pl.lastWidth - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	pl.lastWidth = len(line)
	pl.active = true

	fmt.Fprintf(pl.w, "\r%s%s", line, pad)
}

// Clear erases the line so regular log output starts on a clean row.
func (pl *ProgressLine) Clear() {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if !pl.active {
		return
	}
	fmt.Fprintf(pl.w, "\r%s\r", strings.Repeat(" ", pl.lastWidth))
	pl.lastWidth = 0
	pl.active = false
}
