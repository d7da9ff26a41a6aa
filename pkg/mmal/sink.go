package mmal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

// ErrSinkClosed is returned by Await once the sink is closed.
var ErrSinkClosed = errors.New("sink is closed")

// receiver is the callback side of a Sink, independent of its stage kind.
type receiver interface {
	deliver(buf native.Buffer)
}

// Sinks are looked up from the port user-data token. The native side only
// ever sees the token, never a Go pointer.
var (
	sinkMu    sync.RWMutex
	sinks     = make(map[uintptr]receiver)
	sinkToken atomic.Uintptr
)

func registerSink(r receiver) uintptr {
	token := sinkToken.Add(1)
	sinkMu.Lock()
	sinks[token] = r
	sinkMu.Unlock()
	return token
}

func unregisterSink(token uintptr) {
	sinkMu.Lock()
	delete(sinks, token)
	sinkMu.Unlock()
}

func lookupSink(token uintptr) receiver {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sinks[token]
}

// portCallback returns the completion callback shared by all sinks on b.
func portCallback(b native.Backend) native.Callback {
	return func(port native.Port, buf native.Buffer) {
		defer logging.Recover("port callback")
		r := lookupSink(b.PortUserData(port))
		if r == nil {
			// Port outlived its sink: hand the buffer back to its pool.
			b.BufferRelease(buf)
			return
		}
		r.deliver(buf)
	}
}

// Sink turns completion callbacks on one output port into buffers a Go
// caller can pull, wait on, or await with a context.
//
// Completed buffers land in a recycle queue. Consume hands a buffer's
// payload to the caller and then either returns it to the port through the
// pool or pushes it back to the front of the queue.
type Sink[E Entity, P PortKind[E]] struct {
	c     *Component[E]
	port  native.Port
	pool  *PortPool[E, P]
	queue *Queue

	token   uintptr
	enabled atomic.Bool
	closed  atomic.Bool

	// mu guards the wake slot. The callback takes it after the queue push.
	mu   sync.Mutex
	wake chan struct{}

	// done is closed by Close. life guards queue access against Close
	// destroying the queue; gone is set under its write lock.
	done chan struct{}
	life sync.RWMutex
	gone bool
}

// NewSink builds the pool and recycle queue of port pt on c. The port must
// be configured already; its buffer count and size size the pool.
func NewSink[E Entity, P PortKind[E]](pt Port[E, P], c *Component[E]) (*Sink[E, P], error) {
	port, err := pt.Native(c)
	if err != nil {
		return nil, err
	}
	pool, err := NewPortPool(pt, c)
	if err != nil {
		return nil, err
	}
	queue, err := NewQueue(c.Backend())
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Sink[E, P]{c: c.Clone(), port: port, pool: pool, queue: queue, done: make(chan struct{})}, nil
}

// Pool returns the sink's pool.
func (s *Sink[E, P]) Pool() *PortPool[E, P] { return s.pool }

// Enable registers the sink and enables the port with the completion
// callback. Enabling twice does nothing.
func (s *Sink[E, P]) Enable() error {
	if !s.enabled.CompareAndSwap(false, true) {
		return nil
	}
	b := s.c.Backend()
	s.token = registerSink(s)
	b.PortSetUserData(s.port, s.token)
	if err := statusError(b.PortEnable(s.port, portCallback(b)), "unable to enable port %s", Port[E, P]{}.Name()); err != nil {
		b.PortSetUserData(s.port, 0)
		unregisterSink(s.token)
		s.enabled.Store(false)
		return err
	}
	logging.Logger().WithFields(s.c.fields()).WithField("port", Port[E, P]{}.Name()).Debug("sink enabled")
	return nil
}

// Disable disables the port, then unregisters the sink. Buffers the port
// held come back through the callback before the port reports disabled.
func (s *Sink[E, P]) Disable() error {
	if !s.enabled.CompareAndSwap(true, false) {
		return nil
	}
	b := s.c.Backend()
	err := statusError(b.PortDisable(s.port), "unable to disable port %s", Port[E, P]{}.Name())
	b.PortSetUserData(s.port, 0)
	unregisterSink(s.token)
	return err
}

func (s *Sink[E, P]) deliver(buf native.Buffer) {
	s.c.Backend().QueuePut(s.queue.q, buf)
	s.mu.Lock()
	w := s.wake
	s.wake = nil
	s.mu.Unlock()
	if w != nil {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// get takes the queue head; ok is false once the sink is closed.
func (s *Sink[E, P]) get() (r *BufferRef, ok bool) {
	s.life.RLock()
	defer s.life.RUnlock()
	if s.gone {
		return nil, false
	}
	return s.queue.Get(), true
}

// Get takes the next completed buffer without blocking; nil when none or
// after Close.
func (s *Sink[E, P]) Get() *BufferRef {
	r, _ := s.get()
	return r
}

// Wait blocks the calling goroutine until a completed buffer is available.
// It returns nil once the sink is closed. Wait shares the wake slot with
// Await.
func (s *Sink[E, P]) Wait() *BufferRef {
	r, _ := s.Await(context.Background())
	return r
}

// TimedWait blocks at most d; nil on expiry or once the sink is closed.
func (s *Sink[E, P]) TimedWait(d time.Duration) *BufferRef {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	r, _ := s.Await(ctx)
	return r
}

// Len returns the number of completed buffers waiting.
func (s *Sink[E, P]) Len() int {
	s.life.RLock()
	defer s.life.RUnlock()
	if s.gone {
		return 0
	}
	return s.queue.Len()
}

// Await returns the next completed buffer, suspending until the callback
// signals one, ctx ends or the sink is closed (ErrSinkClosed).
//
// The sink has a single wake slot. A second goroutine awaiting at the same
// time takes the slot over and the first is only released by its ctx or
// by Close.
func (s *Sink[E, P]) Await(ctx context.Context) (*BufferRef, error) {
	for {
		w := make(chan struct{}, 1)
		s.mu.Lock()
		s.wake = w
		s.mu.Unlock()
		r, ok := s.get()
		if !ok {
			s.clearWake(w)
			return nil, ErrSinkClosed
		}
		if r != nil {
			s.clearWake(w)
			return r, nil
		}
		select {
		case <-w:
		case <-s.done:
			s.clearWake(w)
			return nil, ErrSinkClosed
		case <-ctx.Done():
			s.clearWake(w)
			return nil, ctx.Err()
		}
	}
}

func (s *Sink[E, P]) clearWake(w chan struct{}) {
	s.mu.Lock()
	if s.wake == w {
		s.wake = nil
	}
	s.mu.Unlock()
}

// Consume locks r, hands its flags and payload to f and unlocks it again.
// If f reports the buffer consumed it is released and a buffer is fed back
// to the port; otherwise r goes back to the front of the recycle queue.
// When f fails the buffer is released and re-fed as if consumed.
func (s *Sink[E, P]) Consume(r *BufferRef, f func(flags Flags, payload []byte) (bool, error)) (bool, error) {
	var consumed bool
	err := r.Do(func(flags Flags, payload []byte) error {
		var err error
		consumed, err = f(flags, payload)
		return err
	})
	if err == nil && !consumed {
		s.Requeue(r)
		return false, nil
	}
	r.Release()
	if ferr := s.pool.FeedOne(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	return err == nil, err
}

// Requeue pushes r back to the front of the recycle queue. After Close the
// buffer is released instead.
func (s *Sink[E, P]) Requeue(r *BufferRef) {
	s.life.RLock()
	defer s.life.RUnlock()
	if s.gone {
		r.Release()
		return
	}
	s.queue.PutBack(r)
}

// FeedOne sends one pool buffer to the port.
func (s *Sink[E, P]) FeedOne() error { return s.pool.FeedOne() }

// FeedAll sends every pool buffer to the port.
func (s *Sink[E, P]) FeedAll() error { return s.pool.FeedAll() }

// Close releases every waiter with ErrSinkClosed, disables the port,
// returns queued buffers to the pool and tears down the pool, the queue
// and the component reference.
func (s *Sink[E, P]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)
	logging.Deinit(s.Disable(), s.c.fields())
	s.life.Lock()
	s.gone = true
	s.life.Unlock()
	s.queue.Close()
	s.pool.Close()
	s.c.Release()
}
