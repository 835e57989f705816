package evaluator

// PeekableQueue wraps a Queue with non-destructive lookahead of the head
// message. It buffers at most one already-dequeued element internally and
// preserves FIFO order exactly.
//
// It must never be shared between consumers: Peek followed by Get is not
// atomic across callers.
type PeekableQueue struct {
	q   Queue
	buf []EvalJob
}

func NewPeekableQueue(q Queue) *PeekableQueue {
	return &PeekableQueue{q: q}
}

// Peek returns the head element without removing it, or ok=false if
// nothing is visible. Non-blocking.
func (p *PeekableQueue) Peek() (EvalJob, bool) {
	if len(p.buf) == 0 && !p.q.Empty() {
		job, err := p.q.Get()
		if err != nil {
			return EvalJob{}, false
		}
		p.buf = append(p.buf, job)
	}
	if len(p.buf) > 0 {
		return p.buf[0], true
	}
	return EvalJob{}, false
}

// Get returns and removes the head element, preferring the peek buffer,
// otherwise blocking on the underlying queue.
func (p *PeekableQueue) Get() (EvalJob, error) {
	if len(p.buf) > 0 {
		job := p.buf[0]
		p.buf = p.buf[:0]
		return job, nil
	}
	return p.q.Get()
}

// Empty reflects only currently-visible elements.
func (p *PeekableQueue) Empty() bool {
	return len(p.buf) == 0 && p.q.Empty()
}
