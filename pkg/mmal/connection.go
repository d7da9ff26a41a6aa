package mmal

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

// Connection is one owner of a native tunnel from an output port to an
// input port. It is created disabled and must be disabled before the
// components it links are destroyed.
type Connection struct {
	b        native.Backend
	ptr      native.Connection
	name     string
	released atomic.Bool
}

// Connect links port sp of src to port dp of dst. Both ports must resolve.
func Connect[SE Entity, SP PortKind[SE], DE Entity, DP PortKind[DE]](
	sp Port[SE, SP], src *Component[SE], dp Port[DE, DP], dst *Component[DE],
) (*Connection, error) {
	out, err := sp.Native(src)
	if err != nil {
		return nil, err
	}
	in, err := dp.Native(dst)
	if err != nil {
		return nil, err
	}
	name := sp.Name() + "->" + dp.Name()
	b := src.Backend()
	ptr, st := b.ConnectionCreate(out, in,
		native.ConnectionFlagTunnelling|native.ConnectionFlagAllocationOnInput)
	if err := statusError(st, "unable to create connection %s", name); err != nil {
		return nil, err
	}
	logging.Logger().WithField("connection", name).Debug("connection created")
	return &Connection{b: b, ptr: ptr, name: name}, nil
}

// Name returns "<source port>-><destination port>".
func (c *Connection) Name() string { return c.name }

// Native returns the native connection handle.
func (c *Connection) Native() native.Connection { return c.ptr }

// IsEnabled reports the native enabled state.
func (c *Connection) IsEnabled() bool { return c.b.ConnectionIsEnabled(c.ptr) }

// Enable starts the tunnel. Enabling an enabled connection does nothing.
func (c *Connection) Enable() error {
	if c.IsEnabled() {
		return nil
	}
	return statusError(c.b.ConnectionEnable(c.ptr), "unable to enable connection")
}

// Disable stops the tunnel. Disabling a disabled connection does nothing.
func (c *Connection) Disable() error {
	if !c.IsEnabled() {
		return nil
	}
	return statusError(c.b.ConnectionDisable(c.ptr), "unable to disable connection")
}

// Clone acquires another native reference.
func (c *Connection) Clone() *Connection {
	c.b.ConnectionAcquire(c.ptr)
	return &Connection{b: c.b, ptr: c.ptr, name: c.name}
}

// Release drops this owner's reference; the last one destroys the
// connection.
func (c *Connection) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	st := c.b.ConnectionDestroy(c.ptr)
	logging.Deinit(statusError(st, "unable to destroy connection %s", c.name), logrus.Fields{"connection": c.name})
}
