package videoencoder_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thesyncim/gommal/internal/testutil"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/emulator"
	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/videoencoder"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type videoPipeline struct {
	cam  *camera.Component
	venc *videoencoder.Component
	sink *mmal.Sink[videoencoder.Entity, videoencoder.OutputPort]
}

// newVideoPipeline wires camera video -> video encoder. setup runs before
// anything is enabled.
func newVideoPipeline(t *testing.T, e *emulator.Emulator, out videoencoder.OutFormat, setup ...mmal.ParamIO[videoencoder.Entity, videoencoder.OutputPort]) *videoPipeline {
	t.Helper()
	cam, err := camera.Create(e)
	require.NoError(t, err)
	t.Cleanup(cam.Release)
	venc, err := videoencoder.Create(e)
	require.NoError(t, err)
	t.Cleanup(venc.Release)

	require.NoError(t, camera.Video.Configure(cam, testutil.SmallVideo(0)))
	conn, err := mmal.Connect(camera.Video, cam, videoencoder.Input, venc)
	require.NoError(t, err)
	t.Cleanup(conn.Release)
	require.NoError(t, videoencoder.Output.Configure(venc, out))
	require.NoError(t, videoencoder.Output.WriteMulti(venc, setup...))

	sink, err := mmal.NewSink(videoencoder.Output, venc)
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	require.NoError(t, sink.Enable())
	require.NoError(t, venc.Enable())
	require.NoError(t, cam.Enable())
	require.NoError(t, conn.Enable())
	require.NoError(t, sink.FeedAll())
	return &videoPipeline{cam: cam, venc: venc, sink: sink}
}

func (p *videoPipeline) frames(t *testing.T, n int) []*frame.EncodedFrame {
	t.Helper()
	require.NoError(t, camera.Video.Write(p.cam, camera.CaptureVideo(true)))
	defer func() {
		require.NoError(t, camera.Video.Write(p.cam, camera.CaptureVideo(false)))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var a frame.Assembler
	out := make([]*frame.EncodedFrame, 0, n)
	for len(out) < n {
		f, err := frame.Next(ctx, p.sink, &a)
		require.NoError(t, err)
		out = append(out, f)
	}
	return out
}

func nalType(b []byte) byte {
	if len(b) < 5 || !bytes.HasPrefix(b, []byte{0, 0, 0, 1}) {
		return 0
	}
	return b[4]
}

func TestH264Stream(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newVideoPipeline(t, e, videoencoder.DefaultOutFormat(), videoencoder.IntraPeriod(2))

	fs := p.frames(t, 4)

	cfg := fs[0]
	assert.True(t, cfg.IsConfig())
	assert.Equal(t, byte(0x67), nalType(cfg.Data))
	assert.True(t, bytes.Contains(cfg.Data, []byte{0, 0, 0, 1, 0x68}), "config carries the PPS")

	assert.True(t, fs[1].IsKeyframe())
	assert.Equal(t, byte(0x65), nalType(fs[1].Data))
	assert.False(t, fs[2].IsKeyframe())
	assert.Equal(t, byte(0x41), nalType(fs[2].Data))
	assert.True(t, fs[3].IsKeyframe())
	// Without inline headers a later IDR does not repeat SPS/PPS.
	assert.Equal(t, byte(0x65), nalType(fs[3].Data))

	assert.Less(t, fs[1].Timestamp, fs[2].Timestamp)
}

func TestInlineHeader(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newVideoPipeline(t, e, videoencoder.DefaultOutFormat(),
		videoencoder.IntraPeriod(1), videoencoder.InlineHeader(true))

	fs := p.frames(t, 3)
	require.True(t, fs[0].IsConfig())
	assert.Equal(t, byte(0x65), nalType(fs[1].Data))
	assert.Equal(t, byte(0x67), nalType(fs[2].Data))
	assert.True(t, fs[2].IsKeyframe())
	assert.True(t, bytes.Contains(fs[2].Data, []byte{0, 0, 0, 1, 0x65}))
}

func TestRequestIFrame(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newVideoPipeline(t, e, videoencoder.DefaultOutFormat())

	require.True(t, p.frames(t, 1)[0].IsConfig())
	require.True(t, p.frames(t, 1)[0].IsKeyframe(), "first frame is always an IDR")
	require.False(t, p.frames(t, 1)[0].IsKeyframe())

	require.NoError(t, videoencoder.Output.Write(p.venc, videoencoder.RequestIFrame()))
	var sawIDR bool
	for _, f := range p.frames(t, 6) {
		sawIDR = sawIDR || f.IsKeyframe()
	}
	assert.True(t, sawIDR, "an IDR follows the request well before the intra period")

	req := videoencoder.RequestIFrame()
	require.NoError(t, videoencoder.Output.Read(p.venc, req))
	assert.False(t, req.Shape().Value, "request is cleared once served")
}

func TestBitrate(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newVideoPipeline(t, e, videoencoder.OutFormat{Bitrate: 120000}, videoencoder.IntraPeriod(1))

	format, err := videoencoder.Output.Format(p.venc)
	require.NoError(t, err)
	assert.Equal(t, native.EncodingH264, format.Encoding)
	assert.Equal(t, uint32(120000), format.Bitrate)

	small := p.frames(t, 2)[1]
	require.NoError(t, videoencoder.Output.Write(p.venc, videoencoder.Bitrate(2_400_000)))
	br := videoencoder.Bitrate(0)
	require.NoError(t, videoencoder.Output.Read(p.venc, br))
	assert.Equal(t, uint32(2_400_000), br.Shape().Value)

	// Frames already in flight at the old rate may come first.
	var largest int
	for _, f := range p.frames(t, 4) {
		largest = max(largest, len(f.Data))
	}
	assert.Greater(t, largest, len(small.Data))
}

func TestMJPEG(t *testing.T) {
	e := testutil.NewEmulator(t)
	p := newVideoPipeline(t, e, videoencoder.OutFormat{Encoding: native.EncodingMJPEG})

	fs := p.frames(t, 2)
	for _, f := range fs {
		assert.True(t, f.IsKeyframe())
		assert.True(t, bytes.HasPrefix(f.Data, []byte{0xFF, 0xD8}), "JPEG SOI marker")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	e := testutil.NewEmulator(t)
	venc, err := videoencoder.Create(e)
	require.NoError(t, err)
	defer venc.Release()

	p := videoencoder.H264Profile(0, 0)
	require.NoError(t, videoencoder.Output.Read(venc, p))
	assert.Equal(t, videoencoder.ProfileLevel{
		Profile: videoencoder.ProfileH264Baseline,
		Level:   videoencoder.LevelH264_4,
	}, p.Shape().Value)

	require.NoError(t, videoencoder.Output.Write(venc,
		videoencoder.H264Profile(videoencoder.ProfileH264High, videoencoder.LevelH264_41)))
	require.NoError(t, videoencoder.Output.Read(venc, p))
	assert.Equal(t, videoencoder.ProfileH264High, p.Shape().Value.Profile)
	assert.Equal(t, "4.1", p.Shape().Value.Level.String())
}

func TestProfileText(t *testing.T) {
	var p videoencoder.Profile
	require.NoError(t, p.UnmarshalText([]byte("high")))
	assert.Equal(t, videoencoder.ProfileH264High, p)
	assert.Equal(t, "baseline", videoencoder.ProfileH264Baseline.String())

	var l videoencoder.Level
	require.NoError(t, l.UnmarshalText([]byte("3.1")))
	assert.Equal(t, videoencoder.LevelH264_31, l)

	_, err := videoencoder.Profiles.FromNative(33)
	assert.ErrorIs(t, err, mmal.ErrInvalidEnumValue)
	assert.True(t, videoencoder.Profiles.Valid(videoencoder.ProfileDummy))
}
