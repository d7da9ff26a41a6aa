package emulator

import (
	"github.com/thesyncim/gommal/pkg/native"
)

type pool struct {
	h       native.Pool
	port    *port
	supply  *fifo
	mem     []byte
	live    int
	retired bool
}

type buffer struct {
	h      native.Buffer
	pool   *pool
	refs   int
	locks  int
	mem    []byte
	length int
	flags  uint32
	pts    int64
}

// PortPoolCreate allocates num buffers of size bytes in one mapping. Every
// buffer starts in the pool's supply queue with one reference, which the
// final release restores.
func (e *Emulator) PortPoolCreate(h native.Port, num, size uint32) native.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.fault(OpPoolCreate); ok {
		return 0
	}
	p := e.port(h)
	if num == 0 || size == 0 {
		return 0
	}
	mem, err := allocPayload(int(num) * int(size))
	if err != nil {
		e.log.WithError(err).Warn("pool allocation failed")
		return 0
	}
	pl := &pool{h: native.Pool(e.handle()), port: p, mem: mem}
	pl.supply = newFifo(native.Queue(e.handle()))
	e.queues[pl.supply.h] = pl.supply
	for i := uint32(0); i < num; i++ {
		b := &buffer{
			h:    native.Buffer(e.handle()),
			pool: pl,
			refs: 1,
			mem:  mem[i*size : (i+1)*size : (i+1)*size],
		}
		e.buffers[b.h] = b
		pl.live++
		pl.supply.put(b.h)
	}
	e.pools[pl.h] = pl
	return pl.h
}

// PortPoolDestroy frees the buffers sitting in the supply. Buffers still out
// are freed on their last release; the mapping goes with the last buffer.
func (e *Emulator) PortPoolDestroy(_ native.Port, h native.Pool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pl, ok := e.pools[h]
	if !ok {
		return
	}
	delete(e.pools, h)
	delete(e.queues, pl.supply.h)
	pl.retired = true
	for bh := pl.supply.get(); bh != 0; bh = pl.supply.get() {
		e.freeBufferLocked(e.buffers[bh])
	}
}

func (e *Emulator) freeBufferLocked(b *buffer) {
	if b == nil {
		return
	}
	delete(e.buffers, b.h)
	b.pool.live--
	if b.pool.live == 0 {
		if err := freePayload(b.pool.mem); err != nil {
			e.log.WithError(err).Warn("pool unmap failed")
		}
		b.pool.mem = nil
	}
}

func (e *Emulator) PoolQueue(h native.Pool) native.Queue {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.pools[h]; ok {
		return pl.supply.h
	}
	return 0
}

func (e *Emulator) buffer(h native.Buffer) *buffer {
	b, ok := e.buffers[h]
	if !ok {
		panic("emulator: unknown buffer handle")
	}
	return b
}

func (e *Emulator) BufferAcquire(h native.Buffer) {
	e.mu.Lock()
	e.buffer(h).refs++
	e.mu.Unlock()
}

// BufferRelease drops one reference. The last one resets the header and
// returns it to its pool's supply.
func (e *Emulator) BufferRelease(h native.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[h]
	if !ok {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	b.refs = 1
	b.length, b.flags, b.pts, b.locks = 0, 0, 0, 0
	if b.pool.retired {
		e.freeBufferLocked(b)
		return
	}
	b.pool.supply.put(b.h)
}

func (e *Emulator) BufferLock(h native.Buffer) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpBufferLock); ok {
		return st
	}
	e.buffer(h).locks++
	return native.StatusSuccess
}

func (e *Emulator) BufferUnlock(h native.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b := e.buffer(h); b.locks > 0 {
		b.locks--
	}
}

func (e *Emulator) BufferFlags(h native.Buffer) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer(h).flags
}

func (e *Emulator) BufferPTS(h native.Buffer) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer(h).pts
}

func (e *Emulator) BufferPayload(h native.Buffer) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.buffer(h)
	return b.mem[:b.length]
}

// BufferLocks returns the current lock count of h, for tests.
func (e *Emulator) BufferLocks(h native.Buffer) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer(h).locks
}

// BufferRefs returns the reference count of h, for tests.
func (e *Emulator) BufferRefs(h native.Buffer) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer(h).refs
}
