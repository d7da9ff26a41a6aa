// Package depacketizer reassembles H.264 RTP packets into Annex-B access
// units.
package depacketizer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/packetizer"
)

// Errors
var (
	ErrDepacketizerClosed  = errors.New("depacketizer is closed")
	ErrNeedMoreData        = errors.New("need more data")
	ErrBufferTooSmall      = errors.New("buffer too small")
	ErrInvalidPacket       = errors.New("invalid RTP packet")
	ErrUnsupportedEncoding = errors.New("no RTP depayloader for encoding")
)

const nalIDR = 5

// Config configures a depacketizer.
type Config struct {
	Encoding  native.FourCC // Only EncodingH264
	ClockRate uint32        // 0 means packetizer.DefaultClockRate
}

// FrameInfo contains metadata about a reassembled frame.
type FrameInfo struct {
	Size       int
	Timestamp  uint32
	IsKeyframe bool
}

// Depacketizer reassembles RTP packets into complete frames. A frame ends
// at the marker bit or when the RTP timestamp changes. A sequence gap
// drops the frame it falls into.
type Depacketizer interface {
	// Push adds a marshaled RTP packet.
	Push(packet []byte) error

	// PushPacket adds a parsed RTP packet.
	PushPacket(pkt *rtp.Packet) error

	// PopInto copies the oldest complete frame into dst. Returns
	// ErrNeedMoreData if none is ready and ErrBufferTooSmall, leaving the
	// frame queued, if dst cannot hold it.
	PopInto(dst []byte) (FrameInfo, error)

	// Pop returns the oldest complete frame, or nil.
	Pop() *frame.EncodedFrame

	// Lost returns the number of frames dropped for missing packets.
	Lost() uint64

	// Close releases resources.
	Close() error
}

type completed struct {
	data []byte
	info FrameInfo
}

type depacketizer struct {
	config Config
	closed atomic.Bool
	lost   atomic.Uint64

	mu      sync.Mutex
	h264    codecs.H264Packet
	cur     []byte
	curTS   uint32
	started bool
	broken  bool
	lastSeq uint16
	haveSeq bool
	ready   []completed
}

// New creates a new RTP depacketizer.
func New(cfg Config) (Depacketizer, error) {
	if cfg.Encoding == 0 {
		cfg.Encoding = native.EncodingH264
	}
	if cfg.Encoding != native.EncodingH264 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, cfg.Encoding)
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = packetizer.DefaultClockRate
	}
	return &depacketizer{config: cfg}, nil
}

func (d *depacketizer) Push(packet []byte) error {
	if d.closed.Load() {
		return ErrDepacketizerClosed
	}
	if len(packet) == 0 {
		return nil
	}
	var pkt rtp.Packet
	if err := pkt.Unmarshal(packet); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPacket, err)
	}
	return d.PushPacket(&pkt)
}

func (d *depacketizer) PushPacket(pkt *rtp.Packet) error {
	if d.closed.Load() {
		return ErrDepacketizerClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	gap := d.haveSeq && pkt.SequenceNumber != d.lastSeq+1
	d.lastSeq, d.haveSeq = pkt.SequenceNumber, true

	if d.started && pkt.Timestamp != d.curTS {
		// The previous frame never saw its marker; the gap is its loss.
		d.broken = true
		d.finishLocked()
		gap = false
	}
	if !d.started {
		d.started, d.curTS = true, pkt.Timestamp
	}
	if gap {
		d.broken = true
	}

	if len(pkt.Payload) > 0 {
		nal, err := d.h264.Unmarshal(pkt.Payload)
		if err != nil {
			d.broken = true
		} else {
			d.cur = append(d.cur, nal...)
		}
	}
	if pkt.Marker {
		d.finishLocked()
	}
	return nil
}

// finishLocked queues the current frame unless it is broken and starts a
// new one.
func (d *depacketizer) finishLocked() {
	if d.broken {
		d.lost.Add(1)
		// Drop any half-assembled FU-A.
		d.h264 = codecs.H264Packet{}
	} else if len(d.cur) > 0 {
		data := make([]byte, len(d.cur))
		copy(data, d.cur)
		d.ready = append(d.ready, completed{
			data: data,
			info: FrameInfo{Size: len(data), Timestamp: d.curTS, IsKeyframe: hasIDR(data)},
		})
	}
	d.cur = d.cur[:0]
	d.started = false
	d.broken = false
}

func (d *depacketizer) PopInto(dst []byte) (FrameInfo, error) {
	if d.closed.Load() {
		return FrameInfo{}, ErrDepacketizerClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.ready) == 0 {
		return FrameInfo{}, ErrNeedMoreData
	}
	f := d.ready[0]
	if len(dst) < len(f.data) {
		return FrameInfo{}, ErrBufferTooSmall
	}
	copy(dst, f.data)
	d.ready = d.ready[1:]
	return f.info, nil
}

func (d *depacketizer) Pop() *frame.EncodedFrame {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.ready) == 0 {
		return nil
	}
	f := d.ready[0]
	d.ready = d.ready[1:]
	flags := mmal.FlagFrame
	if f.info.IsKeyframe {
		flags |= mmal.FlagKeyframe
	}
	return &frame.EncodedFrame{
		Data:      f.data,
		Timestamp: time.Duration(f.info.Timestamp) * time.Second / time.Duration(d.config.ClockRate),
		Flags:     flags,
	}
}

func (d *depacketizer) Lost() uint64 { return d.lost.Load() }

func (d *depacketizer) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = nil
	d.cur = nil
	return nil
}

// hasIDR reports whether an Annex-B buffer holds an IDR slice.
func hasIDR(b []byte) bool {
	for i := 0; i+3 < len(b); i++ {
		if b[i] == 0 && b[i+1] == 0 && b[i+2] == 1 && b[i+3]&0x1f == nalIDR {
			return true
		}
	}
	return false
}
