package emulator

import (
	"fmt"

	"github.com/thesyncim/gommal/pkg/native"
)

// connection is a tunnel: frames produced on out go straight to the
// component behind in, with no buffers exchanged with the application.
type connection struct {
	h       native.Connection
	out, in *port
	flags   uint32
	refs    int
	enabled bool
}

func (c *connection) disableLocked() {
	if !c.enabled {
		return
	}
	c.enabled = false
	if c.out != nil {
		c.out.stopCapture()
		c.out.enabled = false
	}
	if c.in != nil {
		c.in.enabled = false
	}
}

// unlinkLocked detaches the connection from its ports. It stays allocated
// until its last reference goes.
func (c *connection) unlinkLocked() {
	c.disableLocked()
	if c.out != nil {
		c.out.conn = nil
	}
	if c.in != nil {
		c.in.conn = nil
	}
	c.out, c.in = nil, nil
}

func (e *Emulator) connection(h native.Connection) *connection {
	c, ok := e.conns[h]
	if !ok {
		panic(fmt.Sprintf("emulator: unknown connection handle %#x", uintptr(h)))
	}
	return c
}

// ConnectionCreate copies the output format to the input and commits it.
func (e *Emulator) ConnectionCreate(out, in native.Port, flags uint32) (native.Connection, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpConnectionCreate); ok {
		return 0, st
	}
	op, ip := e.port(out), e.port(in)
	if op.typ != native.PortTypeOutput || ip.typ != native.PortTypeInput {
		return 0, native.StatusInvalid
	}
	if op.conn != nil || ip.conn != nil || op.enabled || ip.enabled {
		return 0, native.StatusIsConnected
	}
	ip.format = op.format
	if st := e.commitLocked(ip); st != native.StatusSuccess {
		return 0, st
	}
	c := &connection{h: native.Connection(e.handle()), out: op, in: ip, flags: flags, refs: 1}
	op.conn, ip.conn = c, c
	e.conns[c.h] = c
	e.log.WithField("connection", op.name+"->"+ip.name).Debug("connection created")
	return c.h, native.StatusSuccess
}

func (e *Emulator) ConnectionAcquire(h native.Connection) {
	e.mu.Lock()
	e.connection(h).refs++
	e.mu.Unlock()
}

func (e *Emulator) ConnectionRelease(h native.Connection) native.Status {
	return e.ConnectionDestroy(h)
}

func (e *Emulator) ConnectionDestroy(h native.Connection) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.conns[h]
	if !ok {
		return native.StatusInvalid
	}
	c.refs--
	if c.refs > 0 {
		return native.StatusSuccess
	}
	c.unlinkLocked()
	delete(e.conns, h)
	return native.StatusSuccess
}

func (e *Emulator) ConnectionEnable(h native.Connection) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpConnectionEnable); ok {
		return st
	}
	c := e.connection(h)
	if c.out == nil || c.in == nil {
		return native.StatusNotConnected
	}
	if c.enabled {
		return native.StatusSuccess
	}
	c.enabled = true
	c.out.enabled = true
	c.in.enabled = true
	return native.StatusSuccess
}

func (e *Emulator) ConnectionDisable(h native.Connection) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connection(h).disableLocked()
	return native.StatusSuccess
}

func (e *Emulator) ConnectionIsEnabled(h native.Connection) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connection(h).enabled
}
