package mmal

import (
	"sync/atomic"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

// PortPool lends a fixed set of buffers to one port. It owns a reference to
// the component, so the port outlives the pool.
type PortPool[E Entity, P PortKind[E]] struct {
	c      *Component[E]
	port   native.Port
	pool   native.Pool
	supply native.Queue
	closed atomic.Bool
}

// NewPortPool allocates a pool sized to the port's committed buffer count
// and size.
func NewPortPool[E Entity, P PortKind[E]](pt Port[E, P], c *Component[E]) (*PortPool[E, P], error) {
	port, err := pt.Native(c)
	if err != nil {
		return nil, err
	}
	b := c.Backend()
	cfg := b.PortBufferConfig(port)
	pool := b.PortPoolCreate(port, cfg.Num, cfg.Size)
	if pool == 0 {
		return nil, newError(CauseCreatePool, "%s: %d x %d bytes", pt.Name(), cfg.Num, cfg.Size)
	}
	logging.Logger().WithFields(c.fields()).WithField("port", pt.Name()).
		Debugf("pool created: %d x %d bytes", cfg.Num, cfg.Size)
	return &PortPool[E, P]{c: c.Clone(), port: port, pool: pool, supply: b.PoolQueue(pool)}, nil
}

// FeedOne sends one buffer from the supply to the port. An empty supply
// returns ErrQueueEmpty, which callers may treat as "try later".
func (p *PortPool[E, P]) FeedOne() error {
	b := p.c.Backend()
	buf := b.QueueGet(p.supply)
	if buf == 0 {
		return newError(CauseQueueEmpty, "%s", Port[E, P]{}.Name())
	}
	if st := b.PortSendBuffer(p.port, buf); st != native.StatusSuccess {
		b.BufferRelease(buf)
		return statusError(st, "%s: could not send buffer", Port[E, P]{}.Name())
	}
	return nil
}

// FeedAll sends buffers until the supply is empty.
func (p *PortPool[E, P]) FeedAll() error {
	for {
		err := p.FeedOne()
		if err == nil {
			continue
		}
		if isQueueEmpty(err) {
			return nil
		}
		return err
	}
}

func isQueueEmpty(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Cause == CauseQueueEmpty
}

// Get takes a buffer from the supply without sending it; nil when empty.
func (p *PortPool[E, P]) Get() *BufferRef {
	b := p.c.Backend()
	return wrapBuffer(b, b.QueueGet(p.supply))
}

// Supply returns the number of buffers waiting in the pool.
func (p *PortPool[E, P]) Supply() int {
	return p.c.Backend().QueueLength(p.supply)
}

// Close destroys the native pool and releases the component reference.
// Buffers still lent out must have come back first.
func (p *PortPool[E, P]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.c.Backend().PortPoolDestroy(p.port, p.pool)
	p.c.Release()
}
