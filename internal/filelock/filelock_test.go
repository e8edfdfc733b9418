package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}

	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
}

func TestLockUnlock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLockPath(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "file_list.csv")

	first, err := TryLockPath(target)
	if err != nil {
		t.Fatalf("first TryLockPath failed: %v", err)
	}

	if _, err := os.Stat(target + ".lock"); err != nil {
		t.Errorf("expected lock file to exist: %v", err)
	}

	// Second holder must be rejected while the first holds the lock
	_, err = TryLockPath(target)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(target + ".lock"); !os.IsNotExist(err) {
		t.Errorf("expected lock file to be removed, stat err = %v", err)
	}

	// Lock is available again after release
	again, err := TryLockPath(target)
	if err != nil {
		t.Fatalf("TryLockPath after release failed: %v", err)
	}
	again.Release()
}

func TestAtomicFileCommit(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out.csv")

	af, err := CreateAtomic(target)
	if err != nil {
		t.Fatalf("CreateAtomic failed: %v", err)
	}

	if _, err := af.Write([]byte("File Path\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Target must not exist before commit
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("target should not exist before commit, stat err = %v", err)
	}

	if err := af.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read target: %v", err)
	}
	if string(data) != "File Path\n" {
		t.Errorf("content = %q, want %q", string(data), "File Path\n")
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("permissions = %v, want 0644", info.Mode().Perm())
	}

	// No temp files left behind
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("expected only the target in dir, got %d entries", len(entries))
	}

	// Second commit is a no-op
	if err := af.Commit(); err != nil {
		t.Errorf("second Commit should be a no-op, got %v", err)
	}
}

func TestAtomicFileAbortKeepsExistingTarget(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out.csv")

	if err := os.WriteFile(target, []byte("previous"), 0644); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}

	af, err := CreateAtomic(target)
	if err != nil {
		t.Fatalf("CreateAtomic failed: %v", err)
	}
	af.Write([]byte("partial"))

	if _, err := os.Stat(af.TempPath()); err != nil {
		t.Fatalf("temp file missing before Abort: %v", err)
	}
	if filepath.Dir(af.TempPath()) != tmpDir {
		t.Errorf("temp file %s is not beside the target", af.TempPath())
	}

	if err := af.Abort(); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "previous" {
		t.Errorf("target content = %q, want %q", string(data), "previous")
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("temp file was not removed, dir has %d entries", len(entries))
	}
}

func TestCreateAtomicMissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "out.csv")

	if _, err := CreateAtomic(target); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}
