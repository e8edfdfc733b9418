// Package sink serializes scan records from many goroutines into one output stream.
//
// A Sink writes the fixed header exactly once at construction, then accepts
// whole batches through Append. Each batch lands contiguously; batches from
// different callers are written in arrival order.
package sink

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/harrison/filescan/internal/filelock"
)

// Header is the first record of every output file.
const Header = "File Path\n"

// BOM is the UTF-8 byte-order mark optionally written before the header.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how the output stream starts.
type Options struct {
	// BOM prefixes the output with a UTF-8 byte-order mark
	BOM bool
}

// OutputOpenError reports that the destination could not be prepared for writing.
type OutputOpenError struct {
	Path string
	Err  error
}

// Error implements the error interface for OutputOpenError.
func (e *OutputOpenError) Error() string {
	return fmt.Sprintf("cannot open output %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OutputOpenError) Unwrap() error {
	return e.Err
}

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("sink is closed")

// Sink is an append-only, mutex-guarded output stream.
type Sink struct {
	mu      sync.Mutex
	w       io.Writer
	err     error
	written int64
	closed  bool

	// file-backed sinks only
	file *filelock.AtomicFile
	lock *filelock.FileLock
}

// New creates a Sink over w and writes the header.
func New(w io.Writer, opts Options) (*Sink, error) {
	s := &Sink{w: w}
	if err := s.writeHeader(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Create opens a file-backed Sink at path.
//
// The destination is guarded by an advisory lock at path+".lock" and written
// through a temporary file that is renamed onto path by Close. Any failure
// is returned as *OutputOpenError.
func Create(path string, opts Options) (*Sink, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &OutputOpenError{Path: path, Err: err}
	}

	lock, err := filelock.TryLockPath(abs)
	if err != nil {
		return nil, &OutputOpenError{Path: abs, Err: err}
	}

	file, err := filelock.CreateAtomic(abs)
	if err != nil {
		lock.Release()
		return nil, &OutputOpenError{Path: abs, Err: err}
	}

	s := &Sink{w: file, file: file, lock: lock}
	if err := s.writeHeader(opts); err != nil {
		file.Abort()
		lock.Release()
		return nil, &OutputOpenError{Path: abs, Err: err}
	}
	return s, nil
}

func (s *Sink) writeHeader(opts Options) error {
	if opts.BOM {
		if _, err := s.w.Write(BOM); err != nil {
			return fmt.Errorf("write byte-order mark: %w", err)
		}
		s.written += int64(len(BOM))
	}
	if _, err := io.WriteString(s.w, Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.written += int64(len(Header))
	return nil
}

// Append writes p as one contiguous unit.
// After the first write failure the error is sticky: later batches are dropped
// and the same error is returned, and Close reports it.
func (s *Sink) Append(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.err != nil {
		return s.err
	}

	n, err := s.w.Write(p)
	s.written += int64(n)
	if err != nil {
		s.err = fmt.Errorf("write output: %w", err)
		return s.err
	}
	return nil
}

// Written returns the number of bytes written so far, header included.
func (s *Sink) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// ScratchPaths returns the absolute paths of the temporary and lock files a
// file-backed Sink keeps beside its destination. Neither exists after Close
// or Abort. Writer-backed sinks return nil.
func (s *Sink) ScratchPaths() []string {
	if s.file == nil {
		return nil
	}
	return []string{s.file.TempPath(), s.lock.Path()}
}

// Abort ends the stream without publishing. A file-backed Sink removes its
// temporary file and releases the lock; any existing destination is left as
// it was. Abort after Close is a no-op.
func (s *Sink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}

	defer s.lock.Release()
	return s.file.Abort()
}

// Close finishes the stream. File-backed sinks are published on success and
// discarded on a prior write failure; the lock is released either way.
// Close returns the first write error, if any.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.err
	}
	s.closed = true

	if s.file == nil {
		return s.err
	}

	defer s.lock.Release()

	if s.err != nil {
		s.file.Abort()
		return s.err
	}
	if err := s.file.Commit(); err != nil {
		s.err = err
	}
	return s.err
}
