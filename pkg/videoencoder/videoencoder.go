// Package videoencoder is the video encoder stage (vc.ril.video_encode),
// normally fed from the camera video port and producing H.264 or MJPEG.
package videoencoder

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// Entity is the video encoder stage kind.
type Entity struct{}

func (Entity) Name() string          { return "video_encoder" }
func (Entity) ComponentName() string { return native.ComponentVideoEncoder }

type Component = mmal.Component[Entity]

// Create instantiates a video encoder component.
func Create(b native.Backend) (*Component, error) {
	return mmal.Create[Entity](b)
}

type InputPort struct{}

func (InputPort) Resolve(c *Component) native.Port { return c.Input(0) }
func (InputPort) Name() string                     { return "video_encoder input port" }

type OutputPort struct{}

func (OutputPort) Resolve(c *Component) native.Port { return c.Output(0) }
func (OutputPort) Name() string                     { return "video_encoder output port" }

var (
	Input  mmal.Port[Entity, InputPort]
	Output mmal.Port[Entity, OutputPort]
)

// DefaultBitrate is the H.264 target used by OutFormat when Bitrate is 0.
const DefaultBitrate = 300000

// OutFormat configures the output port.
type OutFormat struct {
	// Encoding is H264 or MJPEG; 0 selects H264.
	Encoding native.FourCC
	// Bitrate in bits per second.
	Bitrate uint32
	Buffers mmal.BufferPolicy
}

func DefaultOutFormat() OutFormat {
	return OutFormat{Encoding: native.EncodingH264, Bitrate: DefaultBitrate}
}

func (f OutFormat) ApplyFormat(_ native.Backend, _ native.Port, format *native.Format) {
	format.Encoding = f.Encoding
	if format.Encoding == 0 {
		format.Encoding = native.EncodingH264
	}
	format.Bitrate = f.Bitrate
	if format.Bitrate == 0 {
		format.Bitrate = DefaultBitrate
	}
}

func (f OutFormat) BufferPolicy() mmal.BufferPolicy { return f.Buffers }
