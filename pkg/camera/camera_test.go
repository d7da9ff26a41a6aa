package camera

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gommal/pkg/emulator"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

func newCamera(t *testing.T) (*emulator.Emulator, *Component) {
	t.Helper()
	e := emulator.New(emulator.Config{})
	t.Cleanup(e.Close)
	cam, err := Create(e)
	require.NoError(t, err)
	t.Cleanup(cam.Release)
	return e, cam
}

func TestPortNames(t *testing.T) {
	_, cam := newCamera(t)
	assert.Equal(t, "camera control port", Control.Name())
	assert.Equal(t, "camera preview port", Preview.Name())
	assert.Equal(t, "camera video port", Video.Name())
	assert.Equal(t, "camera capture port", Capture.Name())

	seen := map[native.Port]bool{}
	for _, resolve := range []func(*Component) (native.Port, error){
		Control.Native, Preview.Native, Video.Native, Capture.Native,
	} {
		p, err := resolve(cam)
		require.NoError(t, err)
		assert.False(t, seen[p], "ports must be distinct")
		seen[p] = true
	}
}

func TestPresets(t *testing.T) {
	c := DefaultCaptureConfig()
	assert.Equal(t, native.EncodingOpaque, c.Encoding)
	assert.Equal(t, uint32(320), c.Width)
	assert.Equal(t, uint32(240), c.Height)
	assert.Equal(t, mmal.BufferPolicy{}, c.Buffers)

	p := DefaultPreviewConfig()
	assert.Equal(t, uint32(1024), p.Width)
	assert.Equal(t, uint32(768), p.Height)
	assert.Equal(t, p, DefaultVideoConfig())
}

func TestApplyFormat(t *testing.T) {
	e, cam := newCamera(t)
	port, err := Preview.Native(cam)
	require.NoError(t, err)

	var f native.Format
	PortConfig{Encoding: native.EncodingI420, Width: 1920, Height: 1080}.ApplyFormat(e, port, &f)
	assert.Equal(t, uint32(1920), f.Video.Width)
	assert.Equal(t, uint32(1088), f.Video.Height)
	assert.Equal(t, native.Rect{Width: 1920, Height: 1080}, f.Video.Crop)
	assert.Equal(t, native.Rational{Num: 0, Den: 1}, f.Video.FrameRate, "zero frame rate is normalised")

	PortConfig{Encoding: native.EncodingRGB24, Width: 64, Height: 48, FrameRate: native.Rational{Num: 15, Den: 1}}.ApplyFormat(e, port, &f)
	assert.Equal(t, native.EncodingRGB24, f.Encoding)
	assert.Equal(t, int32(15), f.Video.FrameRate.Num)
}

func TestConfigureRawPreview(t *testing.T) {
	_, cam := newCamera(t)
	require.NoError(t, Preview.Configure(cam, PortConfig{
		Encoding: native.EncodingRGB24,
		Width:    100,
		Height:   50,
		Buffers:  mmal.BufferPolicy{Num: 2},
	}))
	bc, err := Preview.BuffersConfig(cam)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), bc.Num)
	assert.Equal(t, uint32(128*64*3), bc.Size)
}

func TestEnumNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ExposureVeryLong.String(), "verylong"},
		{MeteringModes.String(MeteringSpot), "spot"},
		{AWBHorizon.String(), "horizon"},
		{FXCartoon.String(), "cartoon"},
		{DRCHigh.String(), "high"},
		{MirrorBoth.String(), "both"},
		{StereoTopBottom.String(), "tb"},
		{TimestampResetSTC.String(), "reset_stc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}

	for _, v := range ImageEffects.Values() {
		parsed, err := ImageEffects.Parse(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestConfigRejectsUnknownTimestampMode(t *testing.T) {
	n := encodeConfig(DefaultConfig(2592, 1944))
	n.UseSTCTimestamp = 9
	_, err := decodeConfig(n)
	assert.ErrorIs(t, err, mmal.ErrInvalidEnumValue)
}

func TestAnnotateTextIsCut(t *testing.T) {
	long := strings.Repeat("x", AnnotateTextMax+40)
	a, err := decodeAnnotate(encodeAnnotate(Annotation{Enable: true, Text: long}))
	require.NoError(t, err)
	assert.Len(t, a.Text, AnnotateTextMax)
	assert.Nil(t, a.Foreground)
	assert.Nil(t, a.Background)
}

func TestRecordParams(t *testing.T) {
	_, cam := newCamera(t)

	crop := native.Rect{X: 0x4000, Y: 0x4000, Width: 0x8000, Height: 0x8000}
	gains := Gains{Red: native.Rational{Num: 3, Den: 2}, Blue: native.Rational{Num: 5, Den: 4}}
	require.NoError(t, Control.WriteMulti(cam, InputCrop(crop), AWB(AWBOff), AWBGains(gains)))

	gotCrop, gotGains := InputCrop(native.Rect{}), AWBGains(Gains{})
	require.NoError(t, Control.ReadMulti(cam, gotCrop, gotGains))
	assert.Equal(t, crop, gotCrop.Shape().Value)
	assert.Equal(t, gains, gotGains.Shape().Value)

	fps := FPS{Low: native.Rational{Num: 1, Den: 1}, High: native.Rational{Num: 30, Den: 1}}
	require.NoError(t, Video.Write(cam, FPSRange(fps)))
	gotFPS := FPSRange(FPS{})
	require.NoError(t, Video.Read(cam, gotFPS))
	assert.Equal(t, fps, gotFPS.Shape().Value)

	st := Stereo{Mode: StereoSideBySide, Decimate: true}
	require.NoError(t, Capture.Write(cam, StereoParam[CapturePort](st)))
	gotSt := StereoParam[CapturePort](Stereo{})
	require.NoError(t, Capture.Read(cam, gotSt))
	assert.Equal(t, st, gotSt.Shape().Value)
}

func TestDefaults(t *testing.T) {
	_, cam := newCamera(t)
	brightness, exposure, awb := Brightness(0), Exposure(ExposureOff), AWB(AWBOff)
	require.NoError(t, Control.ReadMulti(cam, brightness, exposure, awb))
	assert.Equal(t, int32(50), brightness.Shape().Value)
	assert.Equal(t, ExposureAuto, exposure.Shape().Value)
	assert.Equal(t, AWBAuto, awb.Shape().Value)
}
