package encoder_test

import (
	"bytes"
	"context"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/emulator"
	"github.com/thesyncim/gommal/pkg/encoder"
	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stillPipeline struct {
	cam  *camera.Component
	enc  *encoder.Component
	sink *mmal.Sink[encoder.Entity, encoder.OutputPort]
}

// newStillPipeline wires camera capture -> encoder and enables everything.
func newStillPipeline(t *testing.T, e *emulator.Emulator, out encoder.OutFormat) *stillPipeline {
	t.Helper()
	cam, err := camera.Create(e)
	require.NoError(t, err)
	t.Cleanup(cam.Release)
	enc, err := encoder.Create(e)
	require.NoError(t, err)
	t.Cleanup(enc.Release)

	require.NoError(t, camera.Capture.Configure(cam, camera.DefaultCaptureConfig()))
	conn, err := mmal.Connect(camera.Capture, cam, encoder.Input, enc)
	require.NoError(t, err)
	t.Cleanup(conn.Release)
	require.NoError(t, encoder.Output.Configure(enc, out))

	sink, err := mmal.NewSink(encoder.Output, enc)
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	require.NoError(t, sink.Enable())
	require.NoError(t, enc.Enable())
	require.NoError(t, cam.Enable())
	require.NoError(t, conn.Enable())
	require.NoError(t, sink.FeedAll())
	return &stillPipeline{cam: cam, enc: enc, sink: sink}
}

func (p *stillPipeline) capture(t *testing.T) *frame.EncodedFrame {
	t.Helper()
	require.NoError(t, camera.Capture.Write(p.cam, camera.CaptureStill(true)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f, err := frame.Next(ctx, p.sink, &frame.Assembler{})
	require.NoError(t, err)
	return f
}

func TestStillCaptureJPEG(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newStillPipeline(t, e, encoder.DefaultOutFormat())

	f := p.capture(t)
	img, err := jpeg.Decode(bytes.NewReader(f.Data))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
	assert.False(t, f.Corrupted())

	// The still capture turns itself off.
	require.Eventually(t, func() bool {
		still := camera.CaptureStill(true)
		return camera.Capture.Read(p.cam, still) == nil && !still.Shape().Value
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStillCapturePNG(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newStillPipeline(t, e, encoder.OutFormat{Encoding: native.EncodingPNG})

	format, err := encoder.Output.Format(p.enc)
	require.NoError(t, err)
	assert.Equal(t, native.EncodingPNG, format.Encoding)

	img, err := png.Decode(bytes.NewReader(p.capture(t).Data))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}

func TestJPEGQFactor(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newStillPipeline(t, e, encoder.DefaultOutFormat())

	q := encoder.JPEGQFactor(0)
	require.NoError(t, encoder.Output.Read(p.enc, q))
	assert.Equal(t, uint32(85), q.Shape().Value)

	require.NoError(t, encoder.Output.WriteMulti(p.enc, encoder.JPEGQFactor(95), encoder.JPEGRestartInterval(4)))
	high := p.capture(t)
	require.NoError(t, encoder.Output.Write(p.enc, encoder.JPEGQFactor(10)))
	low := p.capture(t)
	assert.Less(t, len(low.Data), len(high.Data))

	ri := encoder.JPEGRestartInterval(0)
	require.NoError(t, encoder.Output.Read(p.enc, ri))
	assert.Equal(t, uint32(4), ri.Shape().Value)
}

func TestOutputRejectsVideoEncoding(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, err := camera.Create(e)
	require.NoError(t, err)
	defer cam.Release()
	enc, err := encoder.Create(e)
	require.NoError(t, err)
	defer enc.Release()

	require.NoError(t, camera.Capture.Configure(cam, camera.DefaultCaptureConfig()))
	conn, err := mmal.Connect(camera.Capture, cam, encoder.Input, enc)
	require.NoError(t, err)
	defer conn.Release()

	err = encoder.Output.Configure(enc, encoder.OutFormat{Encoding: native.EncodingH264})
	require.ErrorIs(t, err, native.StatusInvalid)
	assert.Contains(t, err.Error(), "encoder output port")
}

func TestCaptureWithoutEncoderEnabledDrops(t *testing.T) {
	e := testutil.NewEmulator(t)
	cam, err := camera.Create(e)
	require.NoError(t, err)
	defer cam.Release()
	enc, err := encoder.Create(e)
	require.NoError(t, err)
	defer enc.Release()

	require.NoError(t, camera.Capture.Configure(cam, camera.DefaultCaptureConfig()))
	conn, err := mmal.Connect(camera.Capture, cam, encoder.Input, enc)
	require.NoError(t, err)
	defer conn.Release()
	require.NoError(t, encoder.Output.Configure(enc, encoder.DefaultOutFormat()))
	sink, err := mmal.NewSink(encoder.Output, enc)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.Enable())
	require.NoError(t, cam.Enable())
	require.NoError(t, conn.Enable())
	require.NoError(t, sink.FeedAll())

	require.NoError(t, camera.Capture.Write(cam, camera.CaptureStill(true)))
	require.Eventually(t, func() bool { return e.Stats().Dropped == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, sink.Len())
}
