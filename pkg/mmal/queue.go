package mmal

import (
	"sync/atomic"
	"time"

	"github.com/thesyncim/gommal/pkg/native"
)

// Queue is a native buffer FIFO. Buffers move through it; the queue holds
// the reference while a buffer is inside.
type Queue struct {
	b      native.Backend
	q      native.Queue
	closed atomic.Bool
}

// NewQueue creates an empty native queue.
func NewQueue(b native.Backend) (*Queue, error) {
	q := b.QueueCreate()
	if q == 0 {
		return nil, newError(CauseCreateQueue, "")
	}
	return &Queue{b: b, q: q}, nil
}

// Get removes the head without blocking; nil when empty.
func (q *Queue) Get() *BufferRef {
	return wrapBuffer(q.b, q.b.QueueGet(q.q))
}

// Wait removes the head, blocking until there is one.
func (q *Queue) Wait() *BufferRef {
	return wrapBuffer(q.b, q.b.QueueWait(q.q))
}

// TimedWait removes the head, blocking at most d; nil on expiry.
func (q *Queue) TimedWait(d time.Duration) *BufferRef {
	return wrapBuffer(q.b, q.b.QueueTimedWait(q.q, d))
}

// Put appends r to the tail and takes over its reference.
func (q *Queue) Put(r *BufferRef) {
	q.b.QueuePut(q.q, r.take())
}

// PutBack pushes r to the head and takes over its reference.
func (q *Queue) PutBack(r *BufferRef) {
	q.b.QueuePutBack(q.q, r.take())
}

// Len returns the number of queued buffers.
func (q *Queue) Len() int { return q.b.QueueLength(q.q) }

// Close releases every queued buffer and destroys the native queue.
func (q *Queue) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	for buf := q.b.QueueGet(q.q); buf != 0; buf = q.b.QueueGet(q.q) {
		q.b.BufferRelease(buf)
	}
	q.b.QueueDestroy(q.q)
}
