package frame_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
)

func TestNextRawCopiesVisibleArea(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, sink := testutil.VideoSink(t, e, 3)
	require.NoError(t, sink.Enable())
	require.NoError(t, sink.FeedAll())

	format, err := camera.Video.Format(cam)
	require.NoError(t, err)
	l, err := frame.LayoutOf(format)
	require.NoError(t, err)
	require.Equal(t, frame.PixelFormatI420, l.Format)
	require.Equal(t, 64, l.Width)
	require.Equal(t, 48, l.Height)

	port, err := camera.Video.Native(cam)
	require.NoError(t, err)
	payload := make([]byte, l.Size())
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, e.Complete(port, nil, uint32(mmal.FlagEOS)))
	require.NoError(t, e.Complete(port, payload, uint32(mmal.FlagFrame)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pool := l.NewPool(1)
	f, err := frame.NextRaw(ctx, sink, l, pool)
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, 64, f.Width)
	assert.Equal(t, 48, f.Height)
	assert.Equal(t, payload[:64], f.YPlane()[:64])
	ySize := l.AlignedWidth * l.AlignedHeight
	assert.Equal(t, payload[ySize:ySize+32], f.UPlane()[:32])
	// Both buffers went back to the port.
	assert.Equal(t, 3, e.Held(port))
}

func TestNextRawShortPayload(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, sink := testutil.VideoSink(t, e, 2)
	require.NoError(t, sink.Enable())
	require.NoError(t, sink.FeedAll())

	format, err := camera.Video.Format(cam)
	require.NoError(t, err)
	l, err := frame.LayoutOf(format)
	require.NoError(t, err)
	port, err := camera.Video.Native(cam)
	require.NoError(t, err)
	require.NoError(t, e.Complete(port, make([]byte, 16), uint32(mmal.FlagFrame)))

	_, err = frame.NextRaw(context.Background(), sink, l, l.NewPool(1))
	require.ErrorIs(t, err, frame.ErrShortPayload)
	assert.Equal(t, 2, e.Held(port))
}

func TestNextRawFromCapture(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, sink := testutil.VideoSink(t, e, 3)
	require.NoError(t, sink.Enable())
	require.NoError(t, cam.Enable())
	require.NoError(t, sink.FeedAll())

	format, err := camera.Video.Format(cam)
	require.NoError(t, err)
	l, err := frame.LayoutOf(format)
	require.NoError(t, err)

	require.NoError(t, camera.Video.Write(cam, camera.CaptureVideo(true)))
	t.Cleanup(func() { _ = camera.Video.Write(cam, camera.CaptureVideo(false)) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool := l.NewPool(2)
	first, err := frame.NextRaw(ctx, sink, l, pool)
	require.NoError(t, err)
	second, err := frame.NextRaw(ctx, sink, l, pool)
	require.NoError(t, err)
	assert.Greater(t, second.Timestamp, first.Timestamp)
	assert.NotEqual(t, first.YPlane()[0], second.YPlane()[0])
	first.Release()
	second.Release()
}
