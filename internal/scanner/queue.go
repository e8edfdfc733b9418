package scanner

import (
	"container/list"
	"sync"
)

// WorkQueue is the FIFO of directories waiting to be enumerated plus the count
// of directories still in flight.
//
// active counts every directory that has been pushed and not yet marked done,
// whether it is still pending or being enumerated by a worker. A worker pushes
// all subdirectories of a directory before marking that directory done, so
// active can only fall to zero once nothing reachable is left. The MarkDone
// call that brings it to zero shuts the queue down and wakes everyone.
type WorkQueue struct {
	mu        sync.Mutex
	taskReady *sync.Cond
	pending   *list.List
	active    int
	shutdown  bool
	quiet     chan struct{}
	quietOnce sync.Once
}

// NewWorkQueue creates an empty WorkQueue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{
		pending: list.New(),
		quiet:   make(chan struct{}),
	}
	q.taskReady = sync.NewCond(&q.mu)
	return q
}

// Push appends dir and counts it as in flight, waking one waiting worker.
// Pushing onto a shut-down queue is a programming error and panics.
func (q *WorkQueue) Push(dir string) {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		panic("scanner: push on shut-down work queue")
	}
	q.pending.PushBack(dir)
	q.active++
	q.mu.Unlock()

	q.taskReady.Signal()
}

// TakeOrWait blocks until a directory is available or the queue is shut down.
// ok is false only when the queue is shut down and empty; pending work is
// always handed out before shutdown is reported.
func (q *WorkQueue) TakeOrWait() (dir string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.pending.Len() == 0 && !q.shutdown {
		q.taskReady.Wait()
	}

	elem := q.pending.Front()
	if elem == nil {
		return "", false
	}
	q.pending.Remove(elem)
	return elem.Value.(string), true
}

// MarkDone records that one taken directory has been fully processed,
// including pushing every subdirectory it contained.
func (q *WorkQueue) MarkDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active <= 0 {
		panic("scanner: MarkDone without a matching Push")
	}
	q.active--

	if q.active == 0 && q.pending.Len() == 0 {
		q.shutdownLocked()
	}
}

// IsQuiescent reports whether nothing is pending or in flight.
func (q *WorkQueue) IsQuiescent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active == 0 && q.pending.Len() == 0
}

// Shutdown wakes every waiting worker and makes TakeOrWait return false once
// the queue is empty. It is idempotent.
func (q *WorkQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shutdownLocked()
}

func (q *WorkQueue) shutdownLocked() {
	q.shutdown = true
	if q.active == 0 {
		q.quietOnce.Do(func() { close(q.quiet) })
	}
	q.taskReady.Broadcast()
}

// Quiet returns a channel that is closed once the queue has drained to quiescence.
func (q *WorkQueue) Quiet() <-chan struct{} {
	return q.quiet
}

// WaitQuiescent blocks until nothing is pending or in flight. An idle queue
// is shut down on the spot, so it returns immediately when nothing was pushed.
func (q *WorkQueue) WaitQuiescent() {
	q.mu.Lock()
	if q.active == 0 {
		q.shutdownLocked()
	}
	q.mu.Unlock()

	<-q.quiet
}

// Len returns the number of pending directories.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// Active returns the number of directories pending or being enumerated.
func (q *WorkQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}
