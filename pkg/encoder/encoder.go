// Package encoder is the still image encoder stage (vc.ril.image_encode).
// Its input is normally fed by a connection from the camera capture port;
// its output produces JPEG or PNG buffers.
package encoder

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// Entity is the image encoder stage kind.
type Entity struct{}

func (Entity) Name() string          { return "encoder" }
func (Entity) ComponentName() string { return native.ComponentImageEncoder }

// Component is an image encoder component handle.
type Component = mmal.Component[Entity]

// Create instantiates an image encoder component.
func Create(b native.Backend) (*Component, error) {
	return mmal.Create[Entity](b)
}

// InputPort selects input 0.
type InputPort struct{}

func (InputPort) Resolve(c *Component) native.Port { return c.Input(0) }
func (InputPort) Name() string                     { return "encoder input port" }

// OutputPort selects output 0.
type OutputPort struct{}

func (OutputPort) Resolve(c *Component) native.Port { return c.Output(0) }
func (OutputPort) Name() string                     { return "encoder output port" }

var (
	Input  mmal.Port[Entity, InputPort]
	Output mmal.Port[Entity, OutputPort]
)

// OutFormat configures the output port. The input format is copied from
// the connected camera port, so only the encoding is set here.
type OutFormat struct {
	// Encoding defaults to JPEG.
	Encoding native.FourCC
	Buffers  mmal.BufferPolicy
}

// DefaultOutFormat encodes JPEG with the recommended buffers.
func DefaultOutFormat() OutFormat {
	return OutFormat{Encoding: native.EncodingJPEG, Buffers: mmal.Recommended}
}

func (f OutFormat) ApplyFormat(_ native.Backend, _ native.Port, format *native.Format) {
	format.Encoding = f.Encoding
	if format.Encoding == 0 {
		format.Encoding = native.EncodingJPEG
	}
}

func (f OutFormat) BufferPolicy() mmal.BufferPolicy { return f.Buffers }

type (
	PJPEGQFactor         = mmal.Param[Entity, OutputPort, *mmal.Uint32]
	PJPEGRestartInterval = mmal.Param[Entity, OutputPort, *mmal.Uint32]
)

// JPEGQFactor sets the JPEG quality, 1 to 100.
func JPEGQFactor(q uint32) PJPEGQFactor {
	return mmal.NewParam[Entity, OutputPort](&mmal.Uint32{ID: native.ParamJPEGQFactor, Value: q})
}

// JPEGRestartInterval sets the restart marker interval in MCUs; 0 disables
// restart markers.
func JPEGRestartInterval(n uint32) PJPEGRestartInterval {
	return mmal.NewParam[Entity, OutputPort](&mmal.Uint32{ID: native.ParamJPEGRestartInterval, Value: n})
}
