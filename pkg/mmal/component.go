package mmal

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

// Entity is a stage kind. Implementations are empty struct types; the type
// parameter of a Component fixes its stage kind for its whole life.
type Entity interface {
	// Name is the short stage name used in errors and logs.
	Name() string
	// ComponentName is the native factory name.
	ComponentName() string
}

func entityName[E Entity]() string {
	var e E
	return e.Name()
}

// Component is one owner of a native component reference.
type Component[E Entity] struct {
	b        native.Backend
	ptr      native.Component
	id       xid.ID
	released atomic.Bool
}

// Create instantiates the native component of stage kind E.
func Create[E Entity](b native.Backend) (*Component[E], error) {
	var e E
	ptr, st := b.ComponentCreate(e.ComponentName())
	if st == native.StatusSuccess && ptr == 0 {
		st = native.StatusNoMemory
	}
	if err := statusError(st, "%s: Unable to create component", e.Name()); err != nil {
		return nil, err
	}
	c := &Component[E]{b: b, ptr: ptr, id: xid.New()}
	logging.Logger().WithFields(c.fields()).Debug("component created")
	return c, nil
}

func (c *Component[E]) fields() logrus.Fields {
	return logrus.Fields{"component": entityName[E](), "id": c.id.String()}
}

// Backend returns the backend the component lives on.
func (c *Component[E]) Backend() native.Backend { return c.b }

// Native returns the native component handle.
func (c *Component[E]) Native() native.Component { return c.ptr }

// ID identifies this owner in logs.
func (c *Component[E]) ID() xid.ID { return c.id }

// Name returns the stage name.
func (c *Component[E]) Name() string { return entityName[E]() }

// Clone acquires another native reference and returns it as a new owner.
func (c *Component[E]) Clone() *Component[E] {
	if c.released.Load() {
		panic(fmt.Sprintf("mmal: clone of released %s component", entityName[E]()))
	}
	c.b.ComponentAcquire(c.ptr)
	return &Component[E]{b: c.b, ptr: c.ptr, id: xid.New()}
}

// Release drops this owner's reference. The native component is destroyed
// when the last reference goes. Calling Release twice is a no-op.
func (c *Component[E]) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	st := c.b.ComponentDestroy(c.ptr)
	logging.Deinit(statusError(st, "%s: unable to destroy component", entityName[E]()), c.fields())
}

// IsEnabled reports the native enabled state.
func (c *Component[E]) IsEnabled() bool {
	return c.b.ComponentIsEnabled(c.ptr)
}

// Enable enables the component. Enabling an enabled component does nothing.
func (c *Component[E]) Enable() error {
	if c.IsEnabled() {
		return nil
	}
	return statusError(c.b.ComponentEnable(c.ptr), "%s: unable to enable component", entityName[E]())
}

// Disable disables the component. Disabling a disabled component does nothing.
func (c *Component[E]) Disable() error {
	if !c.IsEnabled() {
		return nil
	}
	return statusError(c.b.ComponentDisable(c.ptr), "%s: unable to disable component", entityName[E]())
}

// Control returns the control port.
func (c *Component[E]) Control() native.Port {
	return c.b.ControlPort(c.ptr)
}

// Inputs returns the number of input ports.
func (c *Component[E]) Inputs() int { return c.b.InputCount(c.ptr) }

// Outputs returns the number of output ports.
func (c *Component[E]) Outputs() int { return c.b.OutputCount(c.ptr) }

// Input returns input port n. It panics if n is out of range.
func (c *Component[E]) Input(n int) native.Port {
	if count := c.Inputs(); n < 0 || n >= count {
		panic(fmt.Sprintf("mmal: %s has %d input ports, index %d", entityName[E](), count, n))
	}
	return c.b.InputPort(c.ptr, n)
}

// Output returns output port n. It panics if n is out of range.
func (c *Component[E]) Output(n int) native.Port {
	if count := c.Outputs(); n < 0 || n >= count {
		panic(fmt.Sprintf("mmal: %s has %d output ports, index %d", entityName[E](), count, n))
	}
	return c.b.OutputPort(c.ptr, n)
}

// Enabler keeps a component enabled for as long as it is open.
type Enabler[E Entity] struct {
	c      *Component[E]
	closed atomic.Bool
}

// Enable takes ownership of c, enables it and returns the enabler. On
// failure c is released.
func Enable[E Entity](c *Component[E]) (*Enabler[E], error) {
	return EnableWith(c, nil)
}

// EnableWith runs init on c before enabling it. Configuration that must
// happen on a disabled component goes in init.
func EnableWith[E Entity](c *Component[E], init func(*Component[E]) error) (*Enabler[E], error) {
	if init != nil {
		if err := init(c); err != nil {
			c.Release()
			return nil, err
		}
	}
	if err := c.Enable(); err != nil {
		c.Release()
		return nil, err
	}
	return &Enabler[E]{c: c}, nil
}

// Component returns the enabled component. It stays owned by the enabler.
func (e *Enabler[E]) Component() *Component[E] { return e.c }

// Close disables and releases the component.
func (e *Enabler[E]) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	logging.Deinit(e.c.Disable(), e.c.fields())
	e.c.Release()
}
