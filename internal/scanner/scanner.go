// Package scanner implements the parallel directory traversal engine.
//
// An Engine seeds a WorkQueue with the directories directly under the scan
// root that pass the prefix filter, then runs a fixed pool of workers. Each
// worker takes a directory, lists it, pushes its subdirectories back onto the
// queue and buffers matching file paths, flushing the buffer to the shared
// Output whenever it reaches the flush threshold. The scan ends when the
// queue reaches quiescence: nothing pending and nothing being listed.
//
// Run-time failures never stop the pool. An unreadable directory contributes
// no files and no subdirectories; a path that cannot be encoded is skipped.
// Both are counted in the returned models.ScanResult.
package scanner

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/filescan/internal/fileutil"
	"github.com/harrison/filescan/internal/models"
	"github.com/harrison/filescan/internal/walker"
)

// Output receives whole record batches from workers.
// Implementations must accept concurrent calls and must not retain p.
type Output interface {
	Append(p []byte) error
}

// Logger is the logging surface the engine reports through.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogScanStart(root string, topLevelDirs, workers int)
	LogSummary(result models.ScanResult)
}

// Options configures an Engine.
type Options struct {
	// Root is the directory whose subdirectories are scanned
	Root string
	// Filter selects directories and files; nil accepts everything
	Filter *fileutil.Filter
	// FlushBytes is the per-worker buffer size that triggers a flush
	FlushBytes int
	// Workers is the pool size (0 = runtime.NumCPU())
	Workers int
	// Enumerator lists directories (nil = walker.NewDirentEnumerator())
	Enumerator walker.Enumerator
	// Logger receives progress and diagnostics (nil = discard)
	Logger Logger
	// RunID identifies the run (empty = random UUID)
	RunID string
	// OutputName labels the destination in the result and summary
	OutputName string
	// Exclude lists absolute file paths that are never recorded,
	// such as the output's own scratch files
	Exclude []string
}

// ErrAlreadyRun is returned when Run is called more than once on an Engine.
var ErrAlreadyRun = errors.New("scanner: engine already run")

// stats holds the counters shared by all workers.
type stats struct {
	files        atomic.Int64
	directories  atomic.Int64
	listErrors   atomic.Int64
	encodeErrors atomic.Int64
}

// Engine owns all shared scan state. Workers receive it by reference.
type Engine struct {
	root       string
	filter     *fileutil.Filter
	flushBytes int
	workers    int
	enum       walker.Enumerator
	log        Logger
	runID      string
	outName    string
	out        Output
	exclude    map[string]struct{}

	queue *WorkQueue
	stats stats

	startedNano atomic.Int64
	ran         atomic.Bool

	errMu     sync.Mutex
	outputErr error
}

// New validates opts and creates an Engine writing to out.
func New(opts Options, out Output) (*Engine, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if out == nil {
		return nil, fmt.Errorf("output is required")
	}
	if opts.FlushBytes <= 0 {
		return nil, fmt.Errorf("flush threshold must be > 0, got %d", opts.FlushBytes)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", opts.Workers)
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", opts.Root, err)
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	filter := opts.Filter
	if filter == nil {
		filter = fileutil.NewFilter("", fileutil.PrefixAnchored, nil)
	}

	enum := opts.Enumerator
	if enum == nil {
		enum = walker.NewDirentEnumerator()
	}

	var log Logger = nopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, p := range opts.Exclude {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve excluded path %s: %w", p, err)
		}
		exclude[abs] = struct{}{}
	}

	return &Engine{
		root:       root,
		filter:     filter,
		flushBytes: opts.FlushBytes,
		workers:    workers,
		enum:       enum,
		log:        log,
		runID:      runID,
		outName:    opts.OutputName,
		out:        out,
		exclude:    exclude,
		queue:      NewWorkQueue(),
	}, nil
}

// Root returns the absolute scan root.
func (e *Engine) Root() string {
	return e.root
}

// RunID returns the identifier of this run.
func (e *Engine) RunID() string {
	return e.runID
}

// Run performs the scan and blocks until every worker has exited.
//
// A root that cannot be listed is an error. Zero matching top-level
// directories is not: the result has TopLevelDirs == 0 and no records are
// written. The returned error is also non-nil when the Output rejected a
// batch; the counters in the result are still filled in.
func (e *Engine) Run() (models.ScanResult, error) {
	if !e.ran.CompareAndSwap(false, true) {
		return models.ScanResult{}, ErrAlreadyRun
	}

	started := time.Now()
	e.startedNano.Store(started.UnixNano())
	result := models.ScanResult{
		RunID:     e.runID,
		Root:      e.root,
		Output:    e.outName,
		Workers:   e.workers,
		StartedAt: started,
	}

	seeded, err := e.seed()
	if err != nil {
		e.queue.Shutdown()
		return e.finish(result), err
	}
	result.TopLevelDirs = seeded

	if seeded == 0 {
		e.queue.Shutdown()
		e.log.LogInfo("No matching directories found.")
		result = e.finish(result)
		e.log.LogSummary(result)
		return result, nil
	}

	e.log.LogScanStart(e.root, seeded, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		w := newWorker(e)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run()
		}()
	}

	e.queue.WaitQuiescent()
	e.queue.Shutdown()
	wg.Wait()

	result = e.finish(result)
	e.log.LogSummary(result)

	return result, e.OutputError()
}

// seed pushes the root's subdirectories that pass the top-level filter.
// Files directly under the root are never recorded.
func (e *Engine) seed() (int, error) {
	entries, err := e.enum.List(e.root)
	if err != nil {
		return 0, fmt.Errorf("list root directory: %w", err)
	}

	seeded := 0
	for _, entry := range entries {
		if !entry.IsDir || fileutil.IsPseudoEntry(entry.Name) {
			continue
		}
		if !e.filter.MatchTopLevel(entry.Name) {
			continue
		}
		e.queue.Push(filepath.Join(e.root, entry.Name))
		seeded++
	}
	return seeded, nil
}

func (e *Engine) finish(result models.ScanResult) models.ScanResult {
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	result.Files = e.stats.files.Load()
	result.Directories = e.stats.directories.Load()
	result.ListErrors = e.stats.listErrors.Load()
	result.EncodeErrors = e.stats.encodeErrors.Load()
	return result
}

func (e *Engine) recordOutputError(err error) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.outputErr == nil {
		e.outputErr = err
		e.log.LogWarn(fmt.Sprintf("output write failed, further records are dropped: %v", err))
	}
}

func (e *Engine) excluded(path string) bool {
	_, ok := e.exclude[path]
	return ok
}

// OutputError returns the first error reported by the Output, if any.
func (e *Engine) OutputError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.outputErr
}

// Progress is a point-in-time view of a running scan.
type Progress struct {
	Files       int64
	Directories int64
	Pending     int
	Active      int
	Elapsed     time.Duration
}

// Progress returns a snapshot of the scan counters. Safe to call while Run is in progress.
func (e *Engine) Progress() Progress {
	var elapsed time.Duration
	if n := e.startedNano.Load(); n != 0 {
		elapsed = time.Since(time.Unix(0, n))
	}
	return Progress{
		Files:       e.stats.files.Load(),
		Directories: e.stats.directories.Load(),
		Pending:     e.queue.Len(),
		Active:      e.queue.Active(),
		Elapsed:     elapsed,
	}
}

type nopLogger struct{}

func (nopLogger) LogDebug(string)               {}
func (nopLogger) LogInfo(string)                {}
func (nopLogger) LogWarn(string)                {}
func (nopLogger) LogScanStart(string, int, int) {}
func (nopLogger) LogSummary(models.ScanResult)  {}
