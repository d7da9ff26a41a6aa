package emulator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thesyncim/gommal/pkg/native"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEmulator(t *testing.T) *Emulator {
	t.Helper()
	e := New(Config{})
	t.Cleanup(e.Close)
	return e
}

func TestFaultIsOneShot(t *testing.T) {
	e := newEmulator(t)
	e.Fail(OpComponentCreate, native.StatusNoMemory)

	_, st := e.ComponentCreate(native.ComponentCamera)
	assert.Equal(t, native.StatusNoMemory, st)
	h, st := e.ComponentCreate(native.ComponentCamera)
	require.Equal(t, native.StatusSuccess, st)
	defer e.ComponentDestroy(h)

	e.Fail(OpComponentEnable, native.StatusIO)
	e.ClearFaults()
	assert.Equal(t, native.StatusSuccess, e.ComponentEnable(h))
}

func TestUnknownComponent(t *testing.T) {
	e := newEmulator(t)
	_, st := e.ComponentCreate("vc.ril.isp")
	assert.Equal(t, native.StatusNotFound, st)
}

func TestComponentRefcount(t *testing.T) {
	e := newEmulator(t)
	h, st := e.ComponentCreate(native.ComponentCamera)
	require.Equal(t, native.StatusSuccess, st)
	assert.Equal(t, Stats{Components: 1, Ports: 4}, e.Stats())

	e.ComponentAcquire(h)
	assert.Equal(t, native.StatusSuccess, e.ComponentRelease(h))
	assert.Equal(t, 1, e.Stats().Components)
	assert.Equal(t, native.StatusSuccess, e.ComponentDestroy(h))
	assert.Equal(t, Stats{}, e.Stats())
	assert.Equal(t, native.StatusInvalid, e.ComponentDestroy(h))
}

func TestLayouts(t *testing.T) {
	e := newEmulator(t)
	tests := []struct {
		name        string
		ins, outs   int
		outEncoding native.FourCC
	}{
		{native.ComponentCamera, 0, 3, native.EncodingI420},
		{native.ComponentImageEncoder, 1, 1, native.EncodingJPEG},
		{native.ComponentVideoEncoder, 1, 1, native.EncodingH264},
		{native.ComponentNullSink, 1, 0, 0},
		{native.ComponentCameraInfo, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, st := e.ComponentCreate(tt.name)
			require.Equal(t, native.StatusSuccess, st)
			defer e.ComponentDestroy(h)
			assert.Equal(t, tt.ins, e.InputCount(h))
			assert.Equal(t, tt.outs, e.OutputCount(h))
			assert.NotZero(t, e.ControlPort(h))
			assert.Zero(t, e.OutputPort(h, tt.outs))
			if tt.outs > 0 {
				assert.Equal(t, tt.outEncoding, e.PortFormat(e.OutputPort(h, 0)).Encoding)
			}
		})
	}
}

func TestCommitRecommendsBuffers(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCamera)
	defer e.ComponentDestroy(h)
	p := e.OutputPort(h, 1)

	f := e.PortFormat(p)
	f.Encoding = native.EncodingI420
	f.Video.Width, f.Video.Height = 100, 50
	e.PortSetFormat(p, f)
	require.Equal(t, native.StatusSuccess, e.PortFormatCommit(p))
	bc := e.PortBufferConfig(p)
	assert.Equal(t, uint32(128*64*3/2), bc.SizeRecommended)
	assert.Equal(t, uint32(1), bc.NumMin)
	assert.Equal(t, uint32(3), bc.NumRecommended)

	f.Encoding = native.EncodingH264
	e.PortSetFormat(p, f)
	assert.Equal(t, native.StatusInvalid, e.PortFormatCommit(p))
}

func TestPoolLifecycle(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCamera)
	defer e.ComponentDestroy(h)
	p := e.OutputPort(h, 0)

	assert.Zero(t, e.PortPoolCreate(p, 0, 1024))
	pl := e.PortPoolCreate(p, 2, 1024)
	require.NotZero(t, pl)
	supply := e.PoolQueue(pl)
	assert.Equal(t, 2, e.QueueLength(supply))
	assert.Equal(t, 2, e.Stats().Buffers)

	b := e.QueueGet(supply)
	require.NotZero(t, b)
	assert.Len(t, e.BufferPayload(b), 0)
	e.BufferAcquire(b)
	assert.Equal(t, 2, e.BufferRefs(b))
	e.BufferRelease(b)
	assert.Equal(t, 1, e.QueueLength(supply), "one reference still out")
	e.BufferRelease(b)
	assert.Equal(t, 2, e.QueueLength(supply))
	assert.Equal(t, 1, e.BufferRefs(b), "the final release restores the supply reference")

	// A buffer out at destroy time is freed on its last release.
	b = e.QueueGet(supply)
	e.PortPoolDestroy(p, pl)
	assert.Equal(t, 1, e.Stats().Buffers)
	assert.Zero(t, e.Stats().Pools)
	e.BufferRelease(b)
	assert.Zero(t, e.Stats().Buffers)
}

func TestQueueOrder(t *testing.T) {
	e := newEmulator(t)
	q := e.QueueCreate()
	defer e.QueueDestroy(q)

	e.QueuePut(q, 1)
	e.QueuePut(q, 2)
	e.QueuePutBack(q, 3)
	e.QueuePutBack(q, 4)
	var got []native.Buffer
	for b := e.QueueGet(q); b != 0; b = e.QueueGet(q) {
		got = append(got, b)
	}
	assert.Equal(t, []native.Buffer{4, 3, 1, 2}, got)

	start := time.Now()
	assert.Zero(t, e.QueueTimedWait(q, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		e.QueuePut(q, 9)
	}()
	assert.Equal(t, native.Buffer(9), e.QueueWait(q))
}

type collector struct {
	mu    sync.Mutex
	e     *Emulator
	flags []uint32
	sizes []int
	done  chan struct{}
	want  int
}

func (c *collector) callback(_ native.Port, b native.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags = append(c.flags, c.e.BufferFlags(b))
	c.sizes = append(c.sizes, len(c.e.BufferPayload(b)))
	c.e.BufferRelease(b)
	if len(c.flags) == c.want {
		close(c.done)
	}
}

func TestFragmentsAcrossBuffers(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentImageEncoder)
	defer e.ComponentDestroy(h)
	out := e.OutputPort(h, 0)
	require.Equal(t, native.StatusSuccess, e.PortFormatCommit(out))
	e.PortSetBufferConfig(out, 3, 2048)

	c := &collector{e: e, done: make(chan struct{}), want: 3}
	require.Equal(t, native.StatusSuccess, e.PortEnable(out, c.callback))
	pl := e.PortPoolCreate(out, 3, 2048)
	require.NotZero(t, pl)
	defer e.PortPoolDestroy(out, pl)
	for b := e.QueueGet(e.PoolQueue(pl)); b != 0; b = e.QueueGet(e.PoolQueue(pl)) {
		require.Equal(t, native.StatusSuccess, e.PortSendBuffer(out, b))
	}

	e.mu.Lock()
	e.emitLocked(e.port(out), make([]byte, 5000), native.BufferFlagFrame|native.BufferFlagKeyframe, 42)
	e.mu.Unlock()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("fragments not delivered")
	}
	assert.Equal(t, []int{2048, 2048, 904}, c.sizes)
	assert.Equal(t, []uint32{
		native.BufferFlagFrameStart | native.BufferFlagKeyframe,
		native.BufferFlagKeyframe,
		native.BufferFlagFrameEnd | native.BufferFlagKeyframe,
	}, c.flags)
	require.Equal(t, native.StatusSuccess, e.PortDisable(out))
}

func TestEnableRequiresBufferMinimums(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCamera)
	defer e.ComponentDestroy(h)
	p := e.OutputPort(h, 1)

	e.PortSetBufferConfig(p, 1, 16)
	assert.Equal(t, native.StatusInvalid, e.PortEnable(p, func(native.Port, native.Buffer) {}))
	assert.Equal(t, native.StatusInvalid, e.PortDisable(p))
}

func TestCompleteErrors(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCamera)
	defer e.ComponentDestroy(h)
	p := e.OutputPort(h, 0)

	assert.Error(t, e.Complete(p, nil, 0), "port not enabled")
	require.Equal(t, native.StatusSuccess, e.PortEnable(p, func(native.Port, native.Buffer) {}))
	assert.ErrorIs(t, e.Complete(p, nil, 0), ErrNoBuffer)
	assert.Equal(t, 1, e.Stats().Workers)
	require.Equal(t, native.StatusSuccess, e.PortDisable(p))
	assert.Zero(t, e.Stats().Workers)
}

func TestCallbackPanicIsRecovered(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCamera)
	defer e.ComponentDestroy(h)
	p := e.OutputPort(h, 1)
	require.Equal(t, native.StatusSuccess, e.PortEnable(p, func(native.Port, native.Buffer) { panic("boom") }))
	pl := e.PortPoolCreate(p, 1, e.PortBufferConfig(p).Size)
	defer e.PortPoolDestroy(p, pl)
	b := e.QueueGet(e.PoolQueue(pl))
	require.Equal(t, native.StatusSuccess, e.PortSendBuffer(p, b))

	require.NoError(t, e.Complete(p, []byte("x"), 0))
	require.Equal(t, native.StatusSuccess, e.PortDisable(p))
	e.BufferRelease(b)
}

func TestRawFrameSize(t *testing.T) {
	f := native.Format{Encoding: native.EncodingI420, Video: native.VideoFormat{Width: 64, Height: 48}}
	assert.Len(t, rawFrame(f, 1), 64*48*3/2)
	f.Encoding = native.EncodingRGB24
	f.Video.Width = 100
	assert.Len(t, rawFrame(f, 1), 128*48*3)
	f.Encoding = native.EncodingOpaque
	assert.Len(t, rawFrame(f, 1), 128)
}

func TestParams(t *testing.T) {
	e := newEmulator(t)
	h, _ := e.ComponentCreate(native.ComponentCameraInfo)
	defer e.ComponentDestroy(h)
	ctl := e.ControlPort(h)

	body, ok := e.Param(ctl, native.ParamCameraInfo)
	require.True(t, ok)
	assert.Len(t, body, 8+4*32+2*4)

	rec := make([]byte, native.ParamHeaderSize+len(body))
	assert.Equal(t, native.StatusInvalid, e.PortParameterSet(ctl, rec), "size header mismatch")
}
