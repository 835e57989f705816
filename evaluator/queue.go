package evaluator

import (
	"errors"
	"sync"
)

// Queue is a FIFO channel between exactly one trainer and one worker.
// Acknowledgments carry no job identifier, so the whole protocol depends
// on strict FIFO ordering and single-producer/single-consumer discipline;
// implementations must never reorder or drop messages.
type Queue interface {
	// Put enqueues a job. It never blocks on a slow consumer.
	Put(job EvalJob) error
	// Get dequeues the head job, blocking until one is available.
	Get() (EvalJob, error)
	// Empty reports whether any element is currently visible. A
	// concurrent producer enqueueing right after the check is not
	// observed.
	Empty() bool
}

// ErrQueueClosed is returned by Get once a closed queue is drained.
var ErrQueueClosed = errors.New("queue closed")

// FIFO is the in-process Queue: an unbounded slice guarded by a cond var.
type FIFO struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []EvalJob
	closed bool
}

func NewFIFO() *FIFO {
	q := &FIFO{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *FIFO) Put(job EvalJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

func (q *FIFO) Get() (EvalJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return EvalJob{}, ErrQueueClosed
	}
	job := q.items[0]
	q.items = q.items[1:]
	return job, nil
}

func (q *FIFO) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Close wakes any blocked Get. Pending items are still drained first.
func (q *FIFO) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
