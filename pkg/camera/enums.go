package camera

import (
	"github.com/thesyncim/gommal/pkg/mmal"
)

// ExposureMode is MMAL_PARAM_EXPOSUREMODE_T.
type ExposureMode uint32

const (
	ExposureOff ExposureMode = iota
	ExposureAuto
	ExposureNight
	ExposureNightPreview
	ExposureBacklight
	ExposureSpotlight
	ExposureSports
	ExposureSnow
	ExposureBeach
	ExposureVeryLong
	ExposureFixedFPS
	ExposureAntiShake
	ExposureFireworks
)

var ExposureModes = mmal.SequentialEnumTable[ExposureMode]("ExposureMode",
	"off", "auto", "night", "nightpreview", "backlight", "spotlight", "sports",
	"snow", "beach", "verylong", "fixedfps", "antishake", "fireworks")

func (v ExposureMode) String() string                { return ExposureModes.String(v) }
func (v ExposureMode) MarshalText() ([]byte, error)  { return ExposureModes.MarshalText(v) }
func (v *ExposureMode) UnmarshalText(b []byte) error { return ExposureModes.UnmarshalText(v, b) }

// MeteringMode is MMAL_PARAM_EXPOSUREMETERINGMODE_T.
type MeteringMode uint32

const (
	MeteringAverage MeteringMode = iota
	MeteringSpot
	MeteringBacklit
	MeteringMatrix
)

var MeteringModes = mmal.SequentialEnumTable[MeteringMode]("ExposureMeteringMode",
	"average", "spot", "backlit", "matrix")

func (v MeteringMode) String() string                { return MeteringModes.String(v) }
func (v MeteringMode) MarshalText() ([]byte, error)  { return MeteringModes.MarshalText(v) }
func (v *MeteringMode) UnmarshalText(b []byte) error { return MeteringModes.UnmarshalText(v, b) }

// AWBMode is MMAL_PARAM_AWBMODE_T.
type AWBMode uint32

const (
	AWBOff AWBMode = iota
	AWBAuto
	AWBSunlight
	AWBCloudy
	AWBShade
	AWBTungsten
	AWBFluorescent
	AWBIncandescent
	AWBFlash
	AWBHorizon
	AWBGreyworld
)

var AWBModes = mmal.SequentialEnumTable[AWBMode]("AWBMode",
	"off", "auto", "sun", "cloud", "shade", "tungsten", "fluorescent",
	"incandescent", "flash", "horizon", "greyworld")

func (v AWBMode) String() string                { return AWBModes.String(v) }
func (v AWBMode) MarshalText() ([]byte, error)  { return AWBModes.MarshalText(v) }
func (v *AWBMode) UnmarshalText(b []byte) error { return AWBModes.UnmarshalText(v, b) }

// ImageFX is MMAL_PARAM_IMAGEFX_T.
type ImageFX uint32

const (
	FXNone ImageFX = iota
	FXNegative
	FXSolarize
	FXPosterize
	FXWhiteboard
	FXBlackboard
	FXSketch
	FXDenoise
	FXEmboss
	FXOilpaint
	FXHatch
	FXGpen
	FXPastel
	FXWatercolour
	FXFilm
	FXBlur
	FXSaturation
	FXColourSwap
	FXWashedOut
	FXPosterise
	FXColourPoint
	FXColourBalance
	FXCartoon
	FXDeinterlaceDouble
	FXDeinterlaceAdv
	FXDeinterlaceFast
)

var ImageEffects = mmal.SequentialEnumTable[ImageFX]("ImageFX",
	"none", "negative", "solarise", "posterize", "whiteboard", "blackboard", "sketch",
	"denoise", "emboss", "oilpaint", "hatch", "gpen", "pastel", "watercolour", "film",
	"blur", "saturation", "colourswap", "washedout", "posterise", "colourpoint",
	"colourbalance", "cartoon", "deinterlace1", "deinterlace2", "deinterlace3")

func (v ImageFX) String() string                { return ImageEffects.String(v) }
func (v ImageFX) MarshalText() ([]byte, error)  { return ImageEffects.MarshalText(v) }
func (v *ImageFX) UnmarshalText(b []byte) error { return ImageEffects.UnmarshalText(v, b) }

// DRCStrength is MMAL_PARAMETER_DRC_STRENGTH_T.
type DRCStrength uint32

const (
	DRCOff DRCStrength = iota
	DRCLow
	DRCMedium
	DRCHigh
)

var DRCStrengths = mmal.SequentialEnumTable[DRCStrength]("DRCStrength", "off", "low", "med", "high")

func (v DRCStrength) String() string                { return DRCStrengths.String(v) }
func (v DRCStrength) MarshalText() ([]byte, error)  { return DRCStrengths.MarshalText(v) }
func (v *DRCStrength) UnmarshalText(b []byte) error { return DRCStrengths.UnmarshalText(v, b) }

// Mirror is MMAL_PARAM_MIRROR_T.
type Mirror uint32

const (
	MirrorNone Mirror = iota
	MirrorVertical
	MirrorHorizontal
	MirrorBoth
)

var Mirrors = mmal.SequentialEnumTable[Mirror]("Mirror", "none", "vertical", "horizontal", "both")

func (v Mirror) String() string                { return Mirrors.String(v) }
func (v Mirror) MarshalText() ([]byte, error)  { return Mirrors.MarshalText(v) }
func (v *Mirror) UnmarshalText(b []byte) error { return Mirrors.UnmarshalText(v, b) }

// StereoMode is MMAL_STEREOSCOPIC_MODE_T.
type StereoMode uint32

const (
	StereoNone StereoMode = iota
	StereoSideBySide
	StereoTopBottom
)

var StereoModes = mmal.SequentialEnumTable[StereoMode]("StereoMode", "off", "sbs", "tb")

func (v StereoMode) String() string                { return StereoModes.String(v) }
func (v StereoMode) MarshalText() ([]byte, error)  { return StereoModes.MarshalText(v) }
func (v *StereoMode) UnmarshalText(b []byte) error { return StereoModes.UnmarshalText(v, b) }

// TimestampMode is MMAL_PARAMETER_CAMERA_CONFIG_TIMESTAMP_MODE_T.
type TimestampMode uint32

const (
	// TimestampZero always stamps frames with 0.
	TimestampZero TimestampMode = iota
	// TimestampRawSTC uses the raw STC value.
	TimestampRawSTC
	// TimestampResetSTC subtracts the first frame's STC.
	TimestampResetSTC
)

var TimestampModes = mmal.SequentialEnumTable[TimestampMode]("CameraTimestampMode", "zero", "raw_stc", "reset_stc")

func (v TimestampMode) String() string                { return TimestampModes.String(v) }
func (v TimestampMode) MarshalText() ([]byte, error)  { return TimestampModes.MarshalText(v) }
func (v *TimestampMode) UnmarshalText(b []byte) error { return TimestampModes.UnmarshalText(v, b) }
