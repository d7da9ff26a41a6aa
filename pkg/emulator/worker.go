package emulator

import (
	"sync"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

type delivery struct {
	buf  native.Buffer
	done chan struct{}
}

// worker runs the callback of one enabled port, in order, on its own
// goroutine. Its outbox is unbounded so that pushes under the state lock
// never block.
type worker struct {
	port native.Port
	cb   native.Callback

	mu     sync.Mutex
	outbox []delivery

	signal   chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (e *Emulator) startWorker(p native.Port, cb native.Callback) *worker {
	w := &worker{
		port:   p,
		cb:     cb,
		signal: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		w.run()
	}()
	return w
}

func (w *worker) push(d delivery) {
	w.mu.Lock()
	w.outbox = append(w.outbox, d)
	w.mu.Unlock()
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.drain()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *worker) drain() {
	for {
		w.mu.Lock()
		batch := w.outbox
		w.outbox = nil
		w.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			w.deliver(d)
		}
	}
}

func (w *worker) deliver(d delivery) {
	if d.done != nil {
		defer close(d.done)
	}
	defer logging.Recover("emulator port callback")
	w.cb(w.port, d.buf)
}

// stop delivers what is queued and waits for the goroutine to exit. It must
// not be called from the callback itself.
func (w *worker) stop() {
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.done
}
