package camerainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/emulator"
	"github.com/thesyncim/gommal/pkg/mmal"
)

func TestSelect(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, err := Select(e)
	require.NoError(t, err)
	assert.Equal(t, Camera{
		MaxWidth:    2592,
		MaxHeight:   1944,
		LensPresent: true,
		Name:        "ov5647",
	}, cam)
	assert.Zero(t, e.Stats().Components)
}

func TestSelectCustomSensor(t *testing.T) {
	e := emulator.New(emulator.Config{CameraName: "imx219", SensorWidth: 3280, SensorHeight: 2464})
	t.Cleanup(e.Close)
	cam, err := Select(e)
	require.NoError(t, err)
	assert.Equal(t, "imx219", cam.Name)
	assert.Equal(t, uint32(3280), cam.MaxWidth)
}

func TestSelectNoCamera(t *testing.T) {
	e := emulator.New(emulator.Config{NoSensor: true})
	t.Cleanup(e.Close)
	_, err := Select(e)
	require.ErrorIs(t, err, ErrNoCamera)

	info, err := Read(e)
	require.NoError(t, err)
	assert.Empty(t, info.Cameras)
}

func TestInfoIsReadOnly(t *testing.T) {
	e := testutil.NewEmulator(t)
	c, err := Create(e)
	require.NoError(t, err)
	defer c.Release()
	assert.Error(t, Control.Write(c, CameraInfo()))
}

func TestDecodeInfo(t *testing.T) {
	in := Info{
		Cameras: []Camera{
			{PortID: 0, MaxWidth: 2592, MaxHeight: 1944, LensPresent: true, Name: "ov5647"},
			{PortID: 1, MaxWidth: 3280, MaxHeight: 2464, Name: "a-sensor-name-too-long"},
		},
		Flashes: []FlashType{FlashLED},
	}
	out, err := decodeInfo(encodeInfo(in))
	require.NoError(t, err)
	assert.Equal(t, "a-sensor-name-t", out.Cameras[1].Name, "names are truncated to 15 bytes")
	out.Cameras[1].Name = in.Cameras[1].Name
	assert.Equal(t, in, out)

	n := encodeInfo(in)
	n.NumCameras = MaxCameras + 1
	_, err = decodeInfo(n)
	assert.ErrorContains(t, err, "at most 4 supported")

	n = encodeInfo(in)
	n.Flashes[0] = 7
	_, err = decodeInfo(n)
	assert.ErrorIs(t, err, mmal.ErrInvalidEnumValue)
}
