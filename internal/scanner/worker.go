package scanner

import (
	"fmt"
	"path/filepath"

	"github.com/harrison/filescan/internal/fileutil"
	"github.com/harrison/filescan/internal/sink"
)

// worker pulls directories from the engine's queue until shutdown.
// Its record buffer is private and reaches the output only through flush.
type worker struct {
	eng *Engine
	buf []byte
}

func newWorker(eng *Engine) *worker {
	return &worker{
		eng: eng,
		buf: make([]byte, 0, initialBufferCap(eng.flushBytes)),
	}
}

// initialBufferCap caps the up-front allocation for large thresholds.
func initialBufferCap(flushBytes int) int {
	const maxInitial = 64 * 1024
	if flushBytes < maxInitial {
		return flushBytes + 256
	}
	return maxInitial
}

func (w *worker) run() {
	defer w.flush()

	for {
		dir, ok := w.eng.queue.TakeOrWait()
		if !ok {
			return
		}
		w.process(dir)
		w.eng.queue.MarkDone()
	}
}

// process enumerates one directory. Subdirectories are pushed before the
// caller marks dir done.
func (w *worker) process(dir string) {
	eng := w.eng
	eng.stats.directories.Add(1)

	entries, err := eng.enum.List(dir)
	if err != nil {
		eng.stats.listErrors.Add(1)
		eng.log.LogDebug(fmt.Sprintf("skipping unreadable directory: %v", err))
		return
	}

	for _, entry := range entries {
		if fileutil.IsPseudoEntry(entry.Name) {
			continue
		}
		path := filepath.Join(dir, entry.Name)

		if entry.IsDir {
			if eng.filter.MatchSubdir(entry.Name) {
				eng.queue.Push(path)
			}
			continue
		}

		if !eng.filter.MatchFile(entry.Name) || eng.excluded(path) {
			continue
		}

		buf, err := sink.AppendRecord(w.buf, path)
		if err != nil {
			eng.stats.encodeErrors.Add(1)
			eng.log.LogWarn(fmt.Sprintf("skipping file: %v", err))
			continue
		}
		w.buf = buf
		eng.stats.files.Add(1)

		if len(w.buf) >= eng.flushBytes {
			w.flush()
		}
	}
}

func (w *worker) flush() {
	if len(w.buf) == 0 {
		return
	}
	if err := w.eng.out.Append(w.buf); err != nil {
		w.eng.recordOutputError(err)
	}
	w.buf = w.buf[:0]
}
