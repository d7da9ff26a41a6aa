package camera

import (
	"bytes"

	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// Config is the sensor configuration (MMAL_PARAMETER_CAMERA_CONFIG_T).
// It must be written before the component is enabled.
type Config struct {
	// Largest still capture.
	MaxStillsW, MaxStillsH uint32
	StillsYUV422           bool
	OneShotStills          bool
	// Largest preview or video frame.
	MaxPreviewVideoW, MaxPreviewVideoH uint32
	NumPreviewVideoFrames              uint32
	StillsCaptureCircularBufferHeight  uint32
	// FastPreviewResume resumes preview while a still is processed.
	FastPreviewResume bool
	UseSTCTimestamp   TimestampMode
}

// DefaultConfig is the configuration raspistill uses for a width x height
// capture with a 1024x768 preview.
func DefaultConfig(width, height uint32) Config {
	return Config{
		MaxStillsW:            width,
		MaxStillsH:            height,
		OneShotStills:         true,
		MaxPreviewVideoW:      1024,
		MaxPreviewVideoH:      768,
		NumPreviewVideoFrames: 3,
		FastPreviewResume:     false,
		UseSTCTimestamp:       TimestampResetSTC,
	}
}

type nativeConfig struct {
	MaxStillsW                        uint32
	MaxStillsH                        uint32
	StillsYUV422                      uint32
	OneShotStills                     uint32
	MaxPreviewVideoW                  uint32
	MaxPreviewVideoH                  uint32
	NumPreviewVideoFrames             uint32
	StillsCaptureCircularBufferHeight uint32
	FastPreviewResume                 uint32
	UseSTCTimestamp                   uint32
}

func encodeConfig(c Config) nativeConfig {
	return nativeConfig{
		MaxStillsW:                        c.MaxStillsW,
		MaxStillsH:                        c.MaxStillsH,
		StillsYUV422:                      mmal.NativeBool(c.StillsYUV422),
		OneShotStills:                     mmal.NativeBool(c.OneShotStills),
		MaxPreviewVideoW:                  c.MaxPreviewVideoW,
		MaxPreviewVideoH:                  c.MaxPreviewVideoH,
		NumPreviewVideoFrames:             c.NumPreviewVideoFrames,
		StillsCaptureCircularBufferHeight: c.StillsCaptureCircularBufferHeight,
		FastPreviewResume:                 mmal.NativeBool(c.FastPreviewResume),
		UseSTCTimestamp:                   uint32(c.UseSTCTimestamp),
	}
}

func decodeConfig(n nativeConfig) (Config, error) {
	ts, err := TimestampModes.FromNative(n.UseSTCTimestamp)
	if err != nil {
		return Config{}, err
	}
	return Config{
		MaxStillsW:                        n.MaxStillsW,
		MaxStillsH:                        n.MaxStillsH,
		StillsYUV422:                      mmal.GoBool(n.StillsYUV422),
		OneShotStills:                     mmal.GoBool(n.OneShotStills),
		MaxPreviewVideoW:                  n.MaxPreviewVideoW,
		MaxPreviewVideoH:                  n.MaxPreviewVideoH,
		NumPreviewVideoFrames:             n.NumPreviewVideoFrames,
		StillsCaptureCircularBufferHeight: n.StillsCaptureCircularBufferHeight,
		FastPreviewResume:                 mmal.GoBool(n.FastPreviewResume),
		UseSTCTimestamp:                   ts,
	}, nil
}

type PCameraConfig = mmal.Param[Entity, ControlPort, *mmal.Struct[Config, nativeConfig]]

// CameraConfig wraps c as a control port parameter.
func CameraConfig(c Config) PCameraConfig {
	return mmal.NewParam[Entity, ControlPort](
		mmal.NewStruct(native.ParamCameraConfig, c, encodeConfig, decodeConfig))
}

// AnnotateTextMax is the longest annotation text, without terminator.
const AnnotateTextMax = 255

// YUV is an annotation colour.
type YUV struct{ Y, U, V uint8 }

// Annotation is the frame overlay (MMAL_PARAMETER_CAMERA_ANNOTATE_V4_T).
type Annotation struct {
	Enable         bool
	Text           string
	ShowShutter    bool
	ShowAnalogGain bool
	ShowLens       bool
	ShowCAF        bool
	ShowMotion     bool
	ShowFrameNum   bool
	TextBackground bool
	// Background and Foreground are used when non-nil.
	Background *YUV
	Foreground *YUV
	TextSize   uint8
	Justify    uint32
	XOffset    uint32
	YOffset    uint32
}

type nativeAnnotate struct {
	Enable                 uint32
	ShowShutter            uint32
	ShowAnalogGain         uint32
	ShowLens               uint32
	ShowCAF                uint32
	ShowMotion             uint32
	ShowFrameNum           uint32
	EnableTextBackground   uint32
	CustomBackgroundColour uint32
	BackgroundY            uint8
	BackgroundU            uint8
	BackgroundV            uint8
	Dummy1                 uint8
	CustomTextColour       uint32
	TextY                  uint8
	TextU                  uint8
	TextV                  uint8
	TextSize               uint8
	Text                   [AnnotateTextMax + 1]byte
	Justify                uint32
	XOffset                uint32
	YOffset                uint32
}

func encodeAnnotate(a Annotation) nativeAnnotate {
	n := nativeAnnotate{
		Enable:               mmal.NativeBool(a.Enable),
		ShowShutter:          mmal.NativeBool(a.ShowShutter),
		ShowAnalogGain:       mmal.NativeBool(a.ShowAnalogGain),
		ShowLens:             mmal.NativeBool(a.ShowLens),
		ShowCAF:              mmal.NativeBool(a.ShowCAF),
		ShowMotion:           mmal.NativeBool(a.ShowMotion),
		ShowFrameNum:         mmal.NativeBool(a.ShowFrameNum),
		EnableTextBackground: mmal.NativeBool(a.TextBackground),
		TextSize:             a.TextSize,
		Justify:              a.Justify,
		XOffset:              a.XOffset,
		YOffset:              a.YOffset,
	}
	if a.Background != nil {
		n.CustomBackgroundColour = native.True
		n.BackgroundY, n.BackgroundU, n.BackgroundV = a.Background.Y, a.Background.U, a.Background.V
	}
	if a.Foreground != nil {
		n.CustomTextColour = native.True
		n.TextY, n.TextU, n.TextV = a.Foreground.Y, a.Foreground.U, a.Foreground.V
	}
	copy(n.Text[:AnnotateTextMax], a.Text)
	return n
}

func decodeAnnotate(n nativeAnnotate) (Annotation, error) {
	a := Annotation{
		Enable:         mmal.GoBool(n.Enable),
		ShowShutter:    mmal.GoBool(n.ShowShutter),
		ShowAnalogGain: mmal.GoBool(n.ShowAnalogGain),
		ShowLens:       mmal.GoBool(n.ShowLens),
		ShowCAF:        mmal.GoBool(n.ShowCAF),
		ShowMotion:     mmal.GoBool(n.ShowMotion),
		ShowFrameNum:   mmal.GoBool(n.ShowFrameNum),
		TextBackground: mmal.GoBool(n.EnableTextBackground),
		TextSize:       n.TextSize,
		Justify:        n.Justify,
		XOffset:        n.XOffset,
		YOffset:        n.YOffset,
	}
	if mmal.GoBool(n.CustomBackgroundColour) {
		a.Background = &YUV{n.BackgroundY, n.BackgroundU, n.BackgroundV}
	}
	if mmal.GoBool(n.CustomTextColour) {
		a.Foreground = &YUV{n.TextY, n.TextU, n.TextV}
	}
	text := n.Text[:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	a.Text = string(text)
	return a, nil
}

type PAnnotate = mmal.Param[Entity, ControlPort, *mmal.Struct[Annotation, nativeAnnotate]]

// Annotate sets the frame overlay. Text longer than AnnotateTextMax bytes
// is cut.
func Annotate(a Annotation) PAnnotate {
	return mmal.NewParam[Entity, ControlPort](
		mmal.NewStruct(native.ParamAnnotate, a, encodeAnnotate, decodeAnnotate))
}

func same[T any](v T) T             { return v }
func sameErr[T any](v T) (T, error) { return v, nil }

type PInputCrop = mmal.Param[Entity, ControlPort, *mmal.Struct[native.Rect, native.Rect]]

// InputCrop selects the sensor region of interest, in 1/65536 units of the
// full frame.
func InputCrop(r native.Rect) PInputCrop {
	return mmal.NewParam[Entity, ControlPort](
		mmal.NewStruct(native.ParamInputCrop, r, same[native.Rect], sameErr[native.Rect]))
}

// Gains are the red and blue AWB gains used with AWBOff.
type Gains struct {
	Red, Blue native.Rational
}

type PAWBGains = mmal.Param[Entity, ControlPort, *mmal.Struct[Gains, Gains]]

func AWBGains(g Gains) PAWBGains {
	return mmal.NewParam[Entity, ControlPort](
		mmal.NewStruct(native.ParamCustomAWBGains, g, same[Gains], sameErr[Gains]))
}

// FPS is a frame rate range.
type FPS struct {
	Low, High native.Rational
}

type PFPSRange = mmal.Param[Entity, VideoPort, *mmal.Struct[FPS, FPS]]

// FPSRange bounds the video port frame rate.
func FPSRange(r FPS) PFPSRange {
	return mmal.NewParam[Entity, VideoPort](
		mmal.NewStruct(native.ParamFPSRange, r, same[FPS], sameErr[FPS]))
}

// Stereo is the stereoscopic configuration.
type Stereo struct {
	Mode     StereoMode
	Decimate bool
	SwapEyes bool
}

type nativeStereo struct {
	Mode     uint32
	Decimate uint32
	SwapEyes uint32
}

func encodeStereo(s Stereo) nativeStereo {
	return nativeStereo{uint32(s.Mode), mmal.NativeBool(s.Decimate), mmal.NativeBool(s.SwapEyes)}
}

func decodeStereo(n nativeStereo) (Stereo, error) {
	m, err := StereoModes.FromNative(n.Mode)
	if err != nil {
		return Stereo{}, err
	}
	return Stereo{Mode: m, Decimate: mmal.GoBool(n.Decimate), SwapEyes: mmal.GoBool(n.SwapEyes)}, nil
}

// StereoParam configures stereoscopic mode on output P.
func StereoParam[P OutputPort](s Stereo) mmal.Param[Entity, P, *mmal.Struct[Stereo, nativeStereo]] {
	return mmal.NewParam[Entity, P](
		mmal.NewStruct(native.ParamStereoscopicMode, s, encodeStereo, decodeStereo))
}
