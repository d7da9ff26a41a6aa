package camera

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

type (
	PCameraNum    = mmal.Param[Entity, ControlPort, *mmal.Int32]
	PSaturation   = mmal.Param[Entity, ControlPort, *mmal.Scale100]
	PSharpness    = mmal.Param[Entity, ControlPort, *mmal.Scale100]
	PContrast     = mmal.Param[Entity, ControlPort, *mmal.Scale100]
	PBrightness   = mmal.Param[Entity, ControlPort, *mmal.Scale100]
	PISO          = mmal.Param[Entity, ControlPort, *mmal.Uint32]
	PShutterSpeed = mmal.Param[Entity, ControlPort, *mmal.Uint32]
	PExposureComp = mmal.Param[Entity, ControlPort, *mmal.Int32]
	PExposureMode = mmal.Param[Entity, ControlPort, *mmal.Enum[ExposureMode]]
	PMetering     = mmal.Param[Entity, ControlPort, *mmal.Enum[MeteringMode]]
	PAWBMode      = mmal.Param[Entity, ControlPort, *mmal.Enum[AWBMode]]
	PImageEffect  = mmal.Param[Entity, ControlPort, *mmal.Enum[ImageFX]]
	PDRC          = mmal.Param[Entity, ControlPort, *mmal.Enum[DRCStrength]]
	PStabilise    = mmal.Param[Entity, ControlPort, *mmal.Boolean]
	PCaptureStill = mmal.Param[Entity, CapturePort, *mmal.Boolean]
	PCaptureVideo = mmal.Param[Entity, VideoPort, *mmal.Boolean]
)

// CameraNum selects the sensor. Write it before anything else.
func CameraNum(n int32) PCameraNum {
	return mmal.NewParam[Entity, ControlPort](&mmal.Int32{ID: native.ParamCameraNum, Value: n})
}

// Saturation in [-100, 100].
func Saturation(v int32) PSaturation {
	return mmal.NewParam[Entity, ControlPort](&mmal.Scale100{ID: native.ParamSaturation, Value: v})
}

// Sharpness in [-100, 100].
func Sharpness(v int32) PSharpness {
	return mmal.NewParam[Entity, ControlPort](&mmal.Scale100{ID: native.ParamSharpness, Value: v})
}

// Contrast in [-100, 100].
func Contrast(v int32) PContrast {
	return mmal.NewParam[Entity, ControlPort](&mmal.Scale100{ID: native.ParamContrast, Value: v})
}

// Brightness in [0, 100].
func Brightness(v int32) PBrightness {
	return mmal.NewParam[Entity, ControlPort](&mmal.Scale100{ID: native.ParamBrightness, Value: v})
}

// ISO; 0 is auto.
func ISO(v uint32) PISO {
	return mmal.NewParam[Entity, ControlPort](&mmal.Uint32{ID: native.ParamISO, Value: v})
}

// ShutterSpeed in microseconds; 0 is auto.
func ShutterSpeed(us uint32) PShutterSpeed {
	return mmal.NewParam[Entity, ControlPort](&mmal.Uint32{ID: native.ParamShutterSpeed, Value: us})
}

// ExposureCompensation in [-10, 10].
func ExposureCompensation(ev int32) PExposureComp {
	return mmal.NewParam[Entity, ControlPort](&mmal.Int32{ID: native.ParamExposureComp, Value: ev})
}

func Exposure(m ExposureMode) PExposureMode {
	return mmal.NewParam[Entity, ControlPort](&mmal.Enum[ExposureMode]{ID: native.ParamExposureMode, Table: ExposureModes, Value: m})
}

func Metering(m MeteringMode) PMetering {
	return mmal.NewParam[Entity, ControlPort](&mmal.Enum[MeteringMode]{ID: native.ParamExpMeteringMode, Table: MeteringModes, Value: m})
}

func AWB(m AWBMode) PAWBMode {
	return mmal.NewParam[Entity, ControlPort](&mmal.Enum[AWBMode]{ID: native.ParamAWBMode, Table: AWBModes, Value: m})
}

func ImageEffect(fx ImageFX) PImageEffect {
	return mmal.NewParam[Entity, ControlPort](&mmal.Enum[ImageFX]{ID: native.ParamImageEffect, Table: ImageEffects, Value: fx})
}

// DRC sets dynamic range compression.
func DRC(s DRCStrength) PDRC {
	return mmal.NewParam[Entity, ControlPort](&mmal.Enum[DRCStrength]{ID: native.ParamDynamicRangeCompression, Table: DRCStrengths, Value: s})
}

// Stabilisation toggles video stabilisation.
func Stabilisation(on bool) PStabilise {
	return mmal.NewParam[Entity, ControlPort](&mmal.Boolean{ID: native.ParamVideoStabilisation, Value: on})
}

// CaptureStill starts a still capture on the capture port.
func CaptureStill(on bool) PCaptureStill {
	return mmal.NewParam[Entity, CapturePort](&mmal.Boolean{ID: native.ParamCapture, Value: on})
}

// CaptureVideo starts or stops video capture on the video port.
func CaptureVideo(on bool) PCaptureVideo {
	return mmal.NewParam[Entity, VideoPort](&mmal.Boolean{ID: native.ParamCapture, Value: on})
}

// Rotation sets the rotation of output P in degrees (0, 90, 180, 270).
func Rotation[P OutputPort](deg int32) mmal.Param[Entity, P, *mmal.Int32] {
	return mmal.NewParam[Entity, P](&mmal.Int32{ID: native.ParamRotation, Value: deg})
}

// Flip sets the mirroring of output P.
func Flip[P OutputPort](m Mirror) mmal.Param[Entity, P, *mmal.Enum[Mirror]] {
	return mmal.NewParam[Entity, P](&mmal.Enum[Mirror]{ID: native.ParamMirror, Table: Mirrors, Value: m})
}
