package mmal

import (
	"fmt"

	"github.com/thesyncim/gommal/pkg/native"
)

// Shape is the marshaling of one parameter record: it knows its id, how to
// encode its value on Set and how to decode it on Get. A native rejection
// comes back as a native.Status.
//
// Shapes are pointer types so that Get can fill the value in place.
type Shape interface {
	Name() string
	Get(b native.Backend, port native.Port) error
	Set(b native.Backend, port native.Port) error
}

// ParamIO is a parameter bound to port kind P of stage kind E. Only Param
// implements it, so a parameter cannot be written to a port it does not
// belong to.
type ParamIO[E Entity, P PortKind[E]] interface {
	Write(c *Component[E]) error
	Read(c *Component[E]) error
	bind() P
}

// Param binds shape S to port kind P of stage kind E.
type Param[E Entity, P PortKind[E], S Shape] struct {
	shape S
}

// NewParam binds s. Stage packages call it with the first two type
// arguments given: mmal.NewParam[Entity, ControlPort](s).
func NewParam[E Entity, P PortKind[E], S Shape](s S) Param[E, P, S] {
	return Param[E, P, S]{shape: s}
}

func (Param[E, P, S]) bind() P {
	var p P
	return p
}

// Shape returns the bound shape. After Read it holds the value read.
func (p Param[E, P, S]) Shape() S { return p.shape }

// Name returns the parameter name.
func (p Param[E, P, S]) Name() string { return p.shape.Name() }

// Write sets the parameter on its port of c.
func (p Param[E, P, S]) Write(c *Component[E]) error {
	pt := Port[E, P]{}
	port, err := pt.Native(c)
	if err != nil {
		return err
	}
	return wrapShapeError(p.shape.Set(c.Backend(), port),
		fmt.Sprintf("unable to set parameter %s on %s", p.shape.Name(), pt.Name()))
}

// Read gets the parameter from its port of c into the shape.
func (p Param[E, P, S]) Read(c *Component[E]) error {
	pt := Port[E, P]{}
	port, err := pt.Native(c)
	if err != nil {
		return err
	}
	return wrapShapeError(p.shape.Get(c.Backend(), port),
		fmt.Sprintf("unable to get parameter %s on %s", p.shape.Name(), pt.Name()))
}
