package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/config"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/videoencoder"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sample = `
camera:
  width: 1920
  height: 1080
  frame_rate: 25
  iso: 400
  shutter_speed: 10000
  saturation: -20
  exposure: night
  metering: spot
  awb: tungsten
  effect: sketch
  rotation: 180
  flip: horizontal
encoder:
  encoding: h264
  bitrate: 4000000
  intra_period: 25
output:
  rtmp_url: rtmp://localhost/live/cam0
`

func TestParse(t *testing.T) {
	s, err := config.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, uint32(1920), s.Camera.Width)
	assert.Equal(t, int32(25), s.Camera.FrameRate)
	assert.Equal(t, camera.ExposureNight, s.Camera.Exposure)
	assert.Equal(t, camera.MeteringSpot, s.Camera.Metering)
	assert.Equal(t, camera.AWBTungsten, s.Camera.AWB)
	assert.Equal(t, camera.FXSketch, s.Camera.Effect)
	assert.Equal(t, camera.MirrorHorizontal, s.Camera.Flip)
	assert.Equal(t, "rtmp://localhost/live/cam0", s.Output.RTMP)

	// Unset keys keep their defaults.
	assert.Equal(t, int32(50), s.Camera.Brightness)
	assert.Equal(t, ":8080", s.Output.Listen)
	assert.Equal(t, native.EncodingH264, s.Encoder.FourCC())
}

func TestDefaultIsValid(t *testing.T) {
	s := config.Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, videoencoder.OutFormat{Encoding: native.EncodingH264, Bitrate: videoencoder.DefaultBitrate}, s.VideoFormat())

	out, err := s.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "exposure: auto")
	back, err := config.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "camera: {zoom: 2}",
		"bad enum":      "camera: {exposure: dusk}",
		"zero size":     "camera: {width: 0}",
		"frame rate":    "camera: {frame_rate: 120}",
		"iso":           "camera: {iso: 50}",
		"saturation":    "camera: {saturation: 101}",
		"brightness":    "camera: {brightness: -1}",
		"rotation":      "camera: {rotation: 45}",
		"camera num":    "camera: {num: 4}",
		"encoding":      "encoder: {encoding: vp8}",
		"bitrate":       "encoder: {bitrate: 0}",
		"jpeg quality":  "encoder: {encoding: jpeg, quality: 0}",
		"not a mapping": "- 1",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gommal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encoder: {encoding: mjpeg, bitrate: 8000000}\n"), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, native.EncodingMJPEG, s.Encoder.FourCC())

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSensorConfig(t *testing.T) {
	s := config.Default()
	s.Camera.Width, s.Camera.Height = 640, 480
	cfg := s.SensorConfig()
	assert.Equal(t, uint32(640), cfg.MaxStillsW)
	assert.Equal(t, uint32(1024), cfg.MaxPreviewVideoW)

	s.Camera.Width, s.Camera.Height = 1920, 1080
	cfg = s.SensorConfig()
	assert.Equal(t, uint32(1920), cfg.MaxPreviewVideoW)
	assert.Equal(t, uint32(1080), cfg.MaxPreviewVideoH)
}

func TestApply(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, err := camera.Create(e)
	require.NoError(t, err)
	t.Cleanup(cam.Release)

	s, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, s.Apply(cam))

	iso, awb, sat := camera.ISO(0), camera.AWB(camera.AWBAuto), camera.Saturation(0)
	require.NoError(t, camera.Control.ReadMulti(cam, iso, awb, sat))
	assert.Equal(t, uint32(400), iso.Shape().Value)
	assert.Equal(t, camera.AWBTungsten, awb.Shape().Value)
	assert.Equal(t, int32(-20), sat.Shape().Value)

	rot := camera.Rotation[camera.VideoPort](0)
	require.NoError(t, camera.Video.Read(cam, rot))
	assert.Equal(t, int32(180), rot.Shape().Value)

	require.NoError(t, camera.Video.Configure(cam, s.VideoPort()))
	f, err := camera.Video.Format(cam)
	require.NoError(t, err)
	assert.Equal(t, int32(1920), f.Video.Crop.Width)
	assert.Equal(t, native.Rational{Num: 25, Den: 1}, f.Video.FrameRate)
}

func TestApplyEncoder(t *testing.T) {
	e := testutil.NewEmulator(t)
	venc, err := videoencoder.Create(e)
	require.NoError(t, err)
	t.Cleanup(venc.Release)

	s := config.Default()
	s.Encoder.IntraPeriod = 12
	require.NoError(t, s.ApplyEncoder(venc))

	ip := videoencoder.IntraPeriod(0)
	require.NoError(t, videoencoder.Output.Read(venc, ip))
	assert.Equal(t, uint32(12), ip.Shape().Value)

	s.Encoder.Encoding = config.EncodingMJPEG
	s.Encoder.IntraPeriod = 99
	require.NoError(t, s.ApplyEncoder(venc))
	require.NoError(t, videoencoder.Output.Read(venc, ip))
	assert.Equal(t, uint32(12), ip.Shape().Value)
}
