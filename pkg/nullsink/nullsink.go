// Package nullsink is the null sink stage. Connecting the camera preview
// port to it keeps the sensor's exposure and white balance loops running
// when nothing displays the preview.
package nullsink

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

type Entity struct{}

func (Entity) Name() string          { return "null_sink" }
func (Entity) ComponentName() string { return native.ComponentNullSink }

type Component = mmal.Component[Entity]

func Create(b native.Backend) (*Component, error) {
	return mmal.Create[Entity](b)
}

// InputPort selects input 0.
type InputPort struct{}

func (InputPort) Resolve(c *Component) native.Port { return c.Input(0) }
func (InputPort) Name() string                     { return "null_sink input port" }

var Input mmal.Port[Entity, InputPort]
