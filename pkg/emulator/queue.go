package emulator

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/thesyncim/gommal/pkg/native"
)

// fifo is a blocking FIFO of buffer handles. Put-backs go to a stack in
// front of the ring so the most recent one comes out first.
type fifo struct {
	h native.Queue

	mu     sync.Mutex
	ring   *queue.Queue
	front  []native.Buffer
	notify chan struct{}
}

func newFifo(h native.Queue) *fifo {
	return &fifo{h: h, ring: queue.New(), notify: make(chan struct{}, 1)}
}

func (q *fifo) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *fifo) put(b native.Buffer) {
	q.mu.Lock()
	q.ring.Add(b)
	q.mu.Unlock()
	q.signal()
}

func (q *fifo) putBack(b native.Buffer) {
	q.mu.Lock()
	q.front = append(q.front, b)
	q.mu.Unlock()
	q.signal()
}

func (q *fifo) get() native.Buffer {
	q.mu.Lock()
	defer q.mu.Unlock()
	var b native.Buffer
	switch {
	case len(q.front) > 0:
		b = q.front[len(q.front)-1]
		q.front = q.front[:len(q.front)-1]
	case q.ring.Length() > 0:
		b = q.ring.Remove().(native.Buffer)
	default:
		return 0
	}
	if len(q.front)+q.ring.Length() > 0 {
		// Another waiter may be parked on notify.
		q.signal()
	}
	return b
}

func (q *fifo) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.front) + q.ring.Length()
}

// wait blocks until a buffer is available or timeout elapses. A negative
// timeout waits forever.
func (q *fifo) wait(timeout time.Duration) native.Buffer {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		if b := q.get(); b != 0 {
			return b
		}
		select {
		case <-q.notify:
		case <-expired:
			return q.get()
		}
	}
}

func (e *Emulator) fifo(h native.Queue) *fifo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queues[h]
}

func (e *Emulator) QueueCreate() native.Queue {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.fault(OpQueueCreate); ok {
		return 0
	}
	q := newFifo(native.Queue(e.handle()))
	e.queues[q.h] = q
	return q.h
}

func (e *Emulator) QueueDestroy(h native.Queue) {
	e.mu.Lock()
	delete(e.queues, h)
	e.mu.Unlock()
}

func (e *Emulator) QueueGet(h native.Queue) native.Buffer {
	if q := e.fifo(h); q != nil {
		return q.get()
	}
	return 0
}

func (e *Emulator) QueuePut(h native.Queue, b native.Buffer) {
	if q := e.fifo(h); q != nil {
		q.put(b)
	}
}

func (e *Emulator) QueuePutBack(h native.Queue, b native.Buffer) {
	if q := e.fifo(h); q != nil {
		q.putBack(b)
	}
}

func (e *Emulator) QueueWait(h native.Queue) native.Buffer {
	if q := e.fifo(h); q != nil {
		return q.wait(-1)
	}
	return 0
}

func (e *Emulator) QueueTimedWait(h native.Queue, timeout time.Duration) native.Buffer {
	if q := e.fifo(h); q != nil {
		return q.wait(timeout)
	}
	return 0
}

func (e *Emulator) QueueLength(h native.Queue) int {
	if q := e.fifo(h); q != nil {
		return q.length()
	}
	return 0
}
