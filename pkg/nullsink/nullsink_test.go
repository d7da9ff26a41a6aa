package nullsink_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/nullsink"
)

func TestPreviewIntoNullSink(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, err := camera.Create(e)
	require.NoError(t, err)
	defer cam.Release()
	sink, err := nullsink.Create(e)
	require.NoError(t, err)
	defer sink.Release()

	assert.Equal(t, 1, sink.Inputs())
	assert.Zero(t, sink.Outputs())

	cfg := testutil.SmallVideo(0)
	cfg.FrameRate.Num = 120
	require.NoError(t, camera.Preview.Configure(cam, cfg))
	conn, err := mmal.Connect(camera.Preview, cam, nullsink.Input, sink)
	require.NoError(t, err)
	defer conn.Release()
	assert.Equal(t, "camera preview port->null_sink input port", conn.Name())

	in, err := nullsink.Input.Format(sink)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), in.Video.Width)

	require.NoError(t, sink.Enable())
	require.NoError(t, cam.Enable())
	require.NoError(t, conn.Enable())
	require.NoError(t, camera.Preview.Write(cam, camera.Rotation[camera.PreviewPort](180)))

	require.NoError(t, camera.Preview.Write(cam, mmal.NewParam[camera.Entity, camera.PreviewPort](
		&mmal.Boolean{ID: native.ParamCapture, Value: true})))
	require.Eventually(t, func() bool { return e.Stats().Frames >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, e.Stats().Dropped)

	require.NoError(t, conn.Disable())
}
