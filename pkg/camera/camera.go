// Package camera is the camera stage: the vc.ril.camera component, its
// ports, format presets and parameter catalog.
//
// Ports:
//
//	Control  the control port; sensor-wide parameters
//	Preview  output 0
//	Video    output 1
//	Capture  output 2, stills
package camera

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// Entity is the camera stage kind.
type Entity struct{}

func (Entity) Name() string          { return "camera" }
func (Entity) ComponentName() string { return native.ComponentCamera }

// Component is a camera component handle.
type Component = mmal.Component[Entity]

// Create instantiates a camera component.
func Create(b native.Backend) (*Component, error) {
	return mmal.Create[Entity](b)
}

const (
	outputPreview = 0
	outputVideo   = 1
	outputCapture = 2
)

// ControlPort selects the control port.
type ControlPort struct{}

func (ControlPort) Resolve(c *Component) native.Port { return c.Control() }
func (ControlPort) Name() string                     { return "camera control port" }

// PreviewPort selects output 0.
type PreviewPort struct{}

func (PreviewPort) Resolve(c *Component) native.Port { return c.Output(outputPreview) }
func (PreviewPort) Name() string                     { return "camera preview port" }

// VideoPort selects output 1.
type VideoPort struct{}

func (VideoPort) Resolve(c *Component) native.Port { return c.Output(outputVideo) }
func (VideoPort) Name() string                     { return "camera video port" }

// CapturePort selects output 2.
type CapturePort struct{}

func (CapturePort) Resolve(c *Component) native.Port { return c.Output(outputCapture) }
func (CapturePort) Name() string                     { return "camera capture port" }

// Port values carrying the port operations.
var (
	Control mmal.Port[Entity, ControlPort]
	Preview mmal.Port[Entity, PreviewPort]
	Video   mmal.Port[Entity, VideoPort]
	Capture mmal.Port[Entity, CapturePort]
)

// OutputPort is any of the three camera outputs.
type OutputPort interface {
	mmal.PortKind[Entity]
	PreviewPort | VideoPort | CapturePort
}
