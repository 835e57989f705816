package evaluator

import (
	"testing"

	"github.com/matryer/is"
)

func TestPeekableQueueFIFO(t *testing.T) {
	is := is.New(t)

	q := NewFIFO()
	p := NewPeekableQueue(q)

	counters := []int64{1, 2, 3}
	for _, c := range counters {
		is.NoErr(q.Put(EvalJob{Type: JobEval, GlobalCounter: c}))
	}

	// Any number of peeks never perturbs the order, and a peek always
	// previews the very next get.
	for _, want := range counters {
		head, ok := p.Peek()
		is.True(ok)
		is.Equal(head.GlobalCounter, want)

		again, ok := p.Peek()
		is.True(ok)
		is.Equal(again.GlobalCounter, want)

		got, err := p.Get()
		is.NoErr(err)
		is.Equal(got.GlobalCounter, want)
	}

	_, ok := p.Peek()
	is.True(!ok)
	is.True(p.Empty())
}

func TestPeekableQueueGetWithoutPeek(t *testing.T) {
	is := is.New(t)

	q := NewFIFO()
	p := NewPeekableQueue(q)
	is.NoErr(q.Put(EvalJob{Type: JobWait}))

	job, err := p.Get()
	is.NoErr(err)
	is.Equal(job.Type, JobWait)
	is.True(p.Empty())
}

func TestPeekableQueueEmptyPeekIsNonBlocking(t *testing.T) {
	is := is.New(t)

	p := NewPeekableQueue(NewFIFO())
	_, ok := p.Peek()
	is.True(!ok)
}
