// Package walker lists directory contents for the scanner.
//
// The scanner only depends on the Enumerator interface; DirentEnumerator is the
// production implementation built on godirwalk, which reads directory entries
// without an lstat per entry.
package walker

import (
	"fmt"
	"sync"

	"github.com/karrick/godirwalk"
)

// Entry is a single directory entry.
type Entry struct {
	Name  string
	IsDir bool
}

// Enumerator lists the entries of one directory.
// A returned error means the directory could not be listed at all.
type Enumerator interface {
	List(dir string) ([]Entry, error)
}

// EnumeratorFunc adapts a plain function to the Enumerator interface.
type EnumeratorFunc func(dir string) ([]Entry, error)

// List calls f(dir).
func (f EnumeratorFunc) List(dir string) ([]Entry, error) {
	return f(dir)
}

// scratchSize is the per-call buffer handed to godirwalk for raw dirent reads.
const scratchSize = 64 * 1024

// DirentEnumerator lists directories with godirwalk.ReadDirents.
// Symbolic links are reported as non-directories and never followed.
// It is safe for concurrent use; scratch buffers are pooled.
type DirentEnumerator struct {
	scratch sync.Pool
}

// NewDirentEnumerator creates a DirentEnumerator.
func NewDirentEnumerator() *DirentEnumerator {
	return &DirentEnumerator{
		scratch: sync.Pool{
			New: func() any {
				buf := make([]byte, scratchSize)
				return &buf
			},
		},
	}
}

// List returns the entries of dir in directory order.
func (e *DirentEnumerator) List(dir string) ([]Entry, error) {
	bufp := e.scratch.Get().(*[]byte)
	defer e.scratch.Put(bufp)

	dirents, err := godirwalk.ReadDirents(dir, *bufp)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		entries = append(entries, Entry{
			Name:  de.Name(),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}
