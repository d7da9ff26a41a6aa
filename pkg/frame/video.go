// Package frame provides the frame types the capture programs work with:
// raw video frames copied out of camera buffers and encoded frames
// assembled from buffer fragments.
package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// PixelFormat represents the pixel format of a raw video frame.
type PixelFormat int

const (
	// PixelFormatI420 is YUV 4:2:0 planar: Y, then U, then V.
	PixelFormatI420 PixelFormat = iota

	// PixelFormatNV12 is YUV 4:2:0 semi-planar: Y, then interleaved UV.
	PixelFormatNV12
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	default:
		return "Unknown"
	}
}

// PixelFormatOf maps a port encoding to a pixel format.
func PixelFormatOf(enc native.FourCC) (PixelFormat, error) {
	switch enc {
	case native.EncodingI420:
		return PixelFormatI420, nil
	case native.EncodingNV12:
		return PixelFormatNV12, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, enc)
}

// VideoFrame is a raw frame copied out of a camera buffer. Planes are
// tightly packed to Width x Height.
type VideoFrame struct {
	Width  int
	Height int
	Format PixelFormat

	// Data contains the pixel data.
	// For I420: [Y, U, V] planes
	// For NV12: [Y, UV] planes
	Data [][]byte

	// Stride is the number of bytes per row for each plane.
	Stride []int

	// Timestamp is the presentation timestamp.
	Timestamp time.Duration

	// pool is the pool this frame belongs to (for recycling).
	pool *VideoFramePool
}

// Release returns the frame to its pool for reuse.
// After calling Release, the frame must not be used.
func (f *VideoFrame) Release() {
	if f.pool != nil {
		f.pool.Put(f)
	}
}

// Clone creates a deep copy of the frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
		Data:      make([][]byte, len(f.Data)),
		Stride:    make([]int, len(f.Stride)),
	}
	for i, plane := range f.Data {
		clone.Data[i] = make([]byte, len(plane))
		copy(clone.Data[i], plane)
	}
	copy(clone.Stride, f.Stride)
	return clone
}

// YPlane returns the Y plane.
func (f *VideoFrame) YPlane() []byte {
	if len(f.Data) > 0 {
		return f.Data[0]
	}
	return nil
}

// UPlane returns the U plane for I420 format.
// Returns nil for other formats.
func (f *VideoFrame) UPlane() []byte {
	if f.Format == PixelFormatI420 && len(f.Data) > 1 {
		return f.Data[1]
	}
	return nil
}

// VPlane returns the V plane for I420 format.
// Returns nil for other formats.
func (f *VideoFrame) VPlane() []byte {
	if f.Format == PixelFormatI420 && len(f.Data) > 2 {
		return f.Data[2]
	}
	return nil
}

// UVPlane returns the interleaved UV plane for NV12 format.
// Returns nil for other formats.
func (f *VideoFrame) UVPlane() []byte {
	if f.Format == PixelFormatNV12 && len(f.Data) > 1 {
		return f.Data[1]
	}
	return nil
}

// NewI420Frame creates a new I420 video frame with allocated buffers.
func NewI420Frame(width, height int) *VideoFrame {
	ySize := width * height
	uvWidth := (width + 1) / 2
	uvHeight := (height + 1) / 2
	uvSize := uvWidth * uvHeight

	return &VideoFrame{
		Width:  width,
		Height: height,
		Format: PixelFormatI420,
		Data: [][]byte{
			make([]byte, ySize),
			make([]byte, uvSize),
			make([]byte, uvSize),
		},
		Stride: []int{width, uvWidth, uvWidth},
	}
}

// NewNV12Frame creates a new NV12 video frame with allocated buffers.
func NewNV12Frame(width, height int) *VideoFrame {
	ySize := width * height
	uvWidth := (width + 1) / 2
	uvHeight := (height + 1) / 2
	uvSize := uvWidth * uvHeight * 2 // Interleaved UV

	return &VideoFrame{
		Width:  width,
		Height: height,
		Format: PixelFormatNV12,
		Data: [][]byte{
			make([]byte, ySize),
			make([]byte, uvSize),
		},
		Stride: []int{width, uvWidth * 2},
	}
}

// Layout is the geometry of a camera buffer: the port's aligned width and
// height and the visible crop inside it.
type Layout struct {
	Format        PixelFormat
	AlignedWidth  int
	AlignedHeight int
	Width, Height int
}

// LayoutOf derives the buffer layout from a committed port format.
func LayoutOf(f native.Format) (Layout, error) {
	pf, err := PixelFormatOf(f.Encoding)
	if err != nil {
		return Layout{}, err
	}
	l := Layout{
		Format:        pf,
		AlignedWidth:  int(f.Video.Width),
		AlignedHeight: int(f.Video.Height),
		Width:         int(f.Video.Crop.Width),
		Height:        int(f.Video.Crop.Height),
	}
	if l.Width == 0 || l.Height == 0 {
		l.Width, l.Height = l.AlignedWidth, l.AlignedHeight
	}
	return l, nil
}

// Size returns the payload size of one full buffer.
func (l Layout) Size() int {
	return l.AlignedWidth * l.AlignedHeight * 3 / 2
}

// CopyInto copies the visible part of payload into dst, which must have
// the layout's crop size and pixel format.
func (l Layout) CopyInto(dst *VideoFrame, payload []byte) error {
	if len(payload) < l.Size() {
		return fmt.Errorf("%w: %d bytes, want %d", ErrShortPayload, len(payload), l.Size())
	}
	if dst.Width != l.Width || dst.Height != l.Height || dst.Format != l.Format {
		return fmt.Errorf("%w: frame %dx%d %s, layout %dx%d %s", ErrLayoutMismatch,
			dst.Width, dst.Height, dst.Format, l.Width, l.Height, l.Format)
	}
	ySize := l.AlignedWidth * l.AlignedHeight
	copyPlane(dst.Data[0], dst.Stride[0], payload[:ySize], l.AlignedWidth, l.Width, l.Height)
	cw, ch := (l.Width+1)/2, (l.Height+1)/2
	switch l.Format {
	case PixelFormatI420:
		cSize := ySize / 4
		copyPlane(dst.Data[1], dst.Stride[1], payload[ySize:ySize+cSize], l.AlignedWidth/2, cw, ch)
		copyPlane(dst.Data[2], dst.Stride[2], payload[ySize+cSize:ySize+2*cSize], l.AlignedWidth/2, cw, ch)
	case PixelFormatNV12:
		copyPlane(dst.Data[1], dst.Stride[1], payload[ySize:], l.AlignedWidth, cw*2, ch)
	}
	return nil
}

// NewPool returns a frame pool sized to the layout's visible area.
func (l Layout) NewPool(size int) *VideoFramePool {
	return NewVideoFramePool(l.Width, l.Height, l.Format, size)
}

// NextRaw waits for the next raw buffer on src and copies its visible area
// into a frame from pool. Empty buffers are recycled and skipped. The
// buffer goes back to the port before NextRaw returns.
func NextRaw(ctx context.Context, src Source, l Layout, pool *VideoFramePool) (*VideoFrame, error) {
	for {
		r, err := src.Await(ctx)
		if err != nil {
			return nil, err
		}
		pts := time.Duration(r.PTS()) * time.Microsecond
		var f *VideoFrame
		if _, err := src.Consume(r, func(_ mmal.Flags, payload []byte) (bool, error) {
			if len(payload) == 0 {
				return true, nil
			}
			f = pool.Get()
			if err := l.CopyInto(f, payload); err != nil {
				f.Release()
				f = nil
				return true, err
			}
			f.Timestamp = pts
			return true, nil
		}); err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
	}
}

func copyPlane(dst []byte, dstStride int, src []byte, srcStride, width, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+width], src[y*srcStride:])
	}
}

// VideoFramePool manages reusable video frames to reduce allocations.
type VideoFramePool struct {
	mu      sync.Mutex
	frames  []*VideoFrame
	maxSize int
	width   int
	height  int
	format  PixelFormat
}

// NewVideoFramePool creates a pool for video frames of a specific size and format.
func NewVideoFramePool(width, height int, format PixelFormat, poolSize int) *VideoFramePool {
	pool := &VideoFramePool{
		maxSize: poolSize,
		width:   width,
		height:  height,
		format:  format,
		frames:  make([]*VideoFrame, 0, poolSize),
	}

	for i := 0; i < poolSize; i++ {
		frame := pool.allocFrame()
		frame.pool = pool
		pool.frames = append(pool.frames, frame)
	}

	return pool
}

// Get returns a frame from the pool or allocates a new one.
func (p *VideoFramePool) Get() *VideoFrame {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) > 0 {
		f := p.frames[len(p.frames)-1]
		p.frames = p.frames[:len(p.frames)-1]
		f.Timestamp = 0
		return f
	}

	// Pool exhausted, allocate new
	f := p.allocFrame()
	f.pool = p
	return f
}

// Put returns a frame to the pool.
func (p *VideoFramePool) Put(f *VideoFrame) {
	if f == nil || f.pool != p {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) < p.maxSize {
		p.frames = append(p.frames, f)
	}
	// Otherwise let GC handle it
}

func (p *VideoFramePool) allocFrame() *VideoFrame {
	switch p.format {
	case PixelFormatNV12:
		return NewNV12Frame(p.width, p.height)
	default:
		return NewI420Frame(p.width, p.height)
	}
}
