// Package filelock provides advisory locking and atomic publishing for scan output files.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLockPath when another holder owns the lock.
var ErrLocked = errors.New("file is locked by another process")

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	err := fl.flock.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	err := fl.flock.Unlock()
	if err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// Release unlocks and removes the lock file.
func (fl *FileLock) Release() error {
	if err := fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(fl.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", fl.path, err)
	}
	return nil
}

// TryLockPath takes the lock guarding target without blocking.
// The lock path is derived by appending ".lock" to target.
// Returns ErrLocked when the lock is already held.
func TryLockPath(target string) (*FileLock, error) {
	lock := NewFileLock(target + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", target, ErrLocked)
	}
	return lock, nil
}

// AtomicFile is a file written under a temporary name and published with a rename.
// Readers of the target path never observe a partially written file.
//
// The process:
// 1. Create a temporary file in the same directory as the target
// 2. Write content through the AtomicFile
// 3. Commit syncs, closes and renames the temporary file onto the target
//
// Abort (or a failed Commit) removes the temporary file and leaves any
// existing target untouched.
type AtomicFile struct {
	file     *os.File
	target   string
	tempPath string
	done     bool
}

// CreateAtomic creates the temporary file backing target.
// The parent directory must already exist.
func CreateAtomic(target string) (*AtomicFile, error) {
	dir := filepath.Dir(target)

	// Same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &AtomicFile{
		file:     tempFile,
		target:   target,
		tempPath: tempFile.Name(),
	}, nil
}

// Write writes p to the temporary file.
func (af *AtomicFile) Write(p []byte) (int, error) {
	return af.file.Write(p)
}

// Name returns the target path.
func (af *AtomicFile) Name() string {
	return af.target
}

// TempPath returns the path of the temporary file backing the target.
func (af *AtomicFile) TempPath() string {
	return af.tempPath
}

// Commit publishes the written content at the target path.
func (af *AtomicFile) Commit() error {
	if af.done {
		return nil
	}
	af.done = true

	if err := af.file.Sync(); err != nil {
		af.cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := af.file.Close(); err != nil {
		os.Remove(af.tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(af.tempPath, 0644); err != nil {
		os.Remove(af.tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(af.tempPath, af.target); err != nil {
		os.Remove(af.tempPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", af.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (af *AtomicFile) Abort() error {
	if af.done {
		return nil
	}
	af.done = true
	return af.cleanup()
}

func (af *AtomicFile) cleanup() error {
	af.file.Close()
	if err := os.Remove(af.tempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp file: %w", err)
	}
	return nil
}
