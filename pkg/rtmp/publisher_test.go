package rtmp

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
)

type received struct {
	mu     sync.Mutex
	stream string
	frames []*frame.EncodedFrame
}

func (r *received) add(stream string, f *frame.EncodedFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream = stream
	r.frames = append(r.frames, f)
}

func (r *received) snapshot() (string, []*frame.EncodedFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream, append([]*frame.EncodedFrame(nil), r.frames...)
}

func startReceiver(t *testing.T) (*Receiver, *received, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	got := &received{}
	r := NewReceiver(got.add)
	go func() { _ = r.Serve(ln) }()
	t.Cleanup(func() {
		_ = r.Close()
		_ = ln.Close()
	})
	return r, got, "rtmp://" + ln.Addr().String() + "/live/cam0"
}

func configFrame() *frame.EncodedFrame {
	return &frame.EncodedFrame{
		Data:      JoinAnnexB([][]byte{testSPS, testPPS}),
		Timestamp: -1,
		Flags:     mmal.FlagConfig | mmal.FlagFrameEnd,
	}
}

func TestPublishToReceiver(t *testing.T) {
	r, got, url := startReceiver(t)

	p, err := Dial(Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, "cam0", p.Target().Stream)

	// A P frame before any header is dropped.
	require.NoError(t, p.WriteFrame(&frame.EncodedFrame{Data: JoinAnnexB([][]byte{testP}), Flags: mmal.FlagFrame}))
	require.NoError(t, p.WriteFrame(configFrame()))
	require.NoError(t, p.WriteFrame(&frame.EncodedFrame{
		Data:      JoinAnnexB([][]byte{testIDR}),
		Timestamp: 100 * time.Millisecond,
		Flags:     mmal.FlagFrame | mmal.FlagKeyframe,
	}))
	require.NoError(t, p.WriteFrame(&frame.EncodedFrame{
		Data:      JoinAnnexB([][]byte{testP}),
		Timestamp: 133 * time.Millisecond,
		Flags:     mmal.FlagFrame,
	}))

	require.Eventually(t, func() bool {
		_, frames := got.snapshot()
		return len(frames) == 3
	}, 5*time.Second, 10*time.Millisecond)

	stream, frames := got.snapshot()
	assert.Equal(t, "cam0", stream)
	assert.Equal(t, 1, r.Publishing("cam0"))

	assert.True(t, frames[0].IsConfig())
	assert.Equal(t, JoinAnnexB([][]byte{testSPS, testPPS}), frames[0].Data)

	assert.True(t, frames[1].IsKeyframe())
	assert.Equal(t, JoinAnnexB([][]byte{testIDR}), frames[1].Data)
	assert.False(t, frames[2].IsKeyframe())
	assert.Equal(t, JoinAnnexB([][]byte{testP}), frames[2].Data)
	assert.Equal(t, 33*time.Millisecond, frames[2].Timestamp-frames[1].Timestamp)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.WriteFrame(configFrame()), ErrPublisherClosed)
	require.Eventually(t, func() bool { return r.Publishing("cam0") == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestPublishInlineHeaders(t *testing.T) {
	_, got, url := startReceiver(t)

	p, err := Dial(Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	// SPS/PPS carried in the IDR access unit produce a sequence header
	// and are stripped from the slice data.
	idr := &frame.EncodedFrame{
		Data:  JoinAnnexB([][]byte{testSPS, testPPS, testIDR}),
		Flags: mmal.FlagFrame | mmal.FlagKeyframe,
	}
	require.NoError(t, p.WriteFrame(idr))
	// Unchanged parameter sets are not resent.
	require.NoError(t, p.WriteFrame(idr))

	require.Eventually(t, func() bool {
		_, frames := got.snapshot()
		return len(frames) == 3
	}, 5*time.Second, 10*time.Millisecond)
	_, frames := got.snapshot()
	assert.True(t, frames[0].IsConfig())
	for _, f := range frames[1:] {
		assert.True(t, f.IsKeyframe())
		assert.Equal(t, JoinAnnexB([][]byte{testIDR}), f.Data)
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(Config{URL: "rtmp://" + addr + "/live/cam0"})
	assert.Error(t, err)

	_, err = Dial(Config{URL: "rtmp://host/only"})
	assert.ErrorIs(t, err, ErrInvalidURL)
}
