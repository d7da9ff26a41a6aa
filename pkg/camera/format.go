package camera

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// PortConfig is the format preset for a camera output port. The
// geometry is aligned up to 32x16; the crop keeps the requested size.
type PortConfig struct {
	Encoding        native.FourCC
	EncodingVariant native.FourCC
	Width, Height   uint32
	// FrameRate of 0/1 lets the camera pick.
	FrameRate native.Rational
	Buffers   mmal.BufferPolicy
}

// DefaultCaptureConfig is the capture port preset: 320x240 opaque.
func DefaultCaptureConfig() PortConfig {
	return PortConfig{Encoding: native.EncodingOpaque, Width: 320, Height: 240, FrameRate: native.Rational{Den: 1}}
}

// DefaultPreviewConfig is the preview port preset: full FOV 4:3 at
// 1024x768, opaque.
func DefaultPreviewConfig() PortConfig {
	return PortConfig{Encoding: native.EncodingOpaque, Width: 1024, Height: 768, FrameRate: native.Rational{Den: 1}}
}

// DefaultVideoConfig is the video port preset, the same as preview.
func DefaultVideoConfig() PortConfig { return DefaultPreviewConfig() }

func (c PortConfig) ApplyFormat(b native.Backend, port native.Port, f *native.Format) {
	f.Encoding = mmal.FixEncoding(b, port, c.Encoding)
	f.EncodingVariant = c.EncodingVariant
	f.Video.Width = mmal.AlignUp(c.Width, 32)
	f.Video.Height = mmal.AlignUp(c.Height, 16)
	f.Video.Crop = native.Rect{X: 0, Y: 0, Width: int32(c.Width), Height: int32(c.Height)}
	f.Video.FrameRate = c.FrameRate
	if f.Video.FrameRate.Den == 0 {
		f.Video.FrameRate = native.Rational{Num: 0, Den: 1}
	}
}

func (c PortConfig) BufferPolicy() mmal.BufferPolicy { return c.Buffers }
