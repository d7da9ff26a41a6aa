// Package packetizer turns encoded camera frames into RTP packets.
package packetizer

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/native"
)

// Errors
var (
	ErrPacketizerClosed    = errors.New("packetizer is closed")
	ErrBufferTooSmall      = errors.New("buffer too small")
	ErrInvalidData         = errors.New("invalid data")
	ErrUnsupportedEncoding = errors.New("no RTP payloader for encoding")
)

// Defaults applied by New.
const (
	DefaultMTU       = 1200
	DefaultClockRate = 90000
	rtpHeaderSize    = 12
)

// Config configures an RTP packetizer.
type Config struct {
	Encoding    native.FourCC // Only EncodingH264 has a payloader
	SSRC        uint32
	PayloadType uint8
	MTU         uint16 // Maximum transmission unit (typically 1200)
	ClockRate   uint32 // RTP clock rate (90000 for video)
}

// PacketInfo describes a single RTP packet in the output buffer.
type PacketInfo struct {
	Offset int // Offset into the buffer where this packet starts
	Size   int // Size of this packet
}

// Packetizer converts encoded frames into RTP packets.
type Packetizer interface {
	// Packetize returns the packets of one frame. A config-only H.264
	// frame yields no packets: its SPS/PPS are sent in a STAP-A ahead of
	// the next slice.
	Packetize(f *frame.EncodedFrame) ([]*rtp.Packet, error)

	// PacketizeInto marshals the packets of f contiguously into dst and
	// records their offset/size in packets. Returns the number written.
	PacketizeInto(f *frame.EncodedFrame, dst []byte, packets []PacketInfo) (int, error)

	// MaxPackets returns the maximum number of packets that could be generated
	// for a frame of the given size.
	MaxPackets(frameSize int) int

	// MaxPacketSize returns the maximum size of a single RTP packet.
	MaxPacketSize() int

	// SequenceNumber returns the last sequence number used.
	SequenceNumber() uint16

	// Close releases resources.
	Close() error
}

type packetizer struct {
	config    Config
	payloader rtp.Payloader
	sequencer rtp.Sequencer
	seq       uint16
	closed    atomic.Bool
	mu        sync.Mutex
}

// New creates a new RTP packetizer.
func New(cfg Config) (Packetizer, error) {
	if cfg.Encoding == 0 {
		cfg.Encoding = native.EncodingH264
	}
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = DefaultClockRate
	}
	if cfg.MTU <= rtpHeaderSize {
		return nil, ErrBufferTooSmall
	}

	var payloader rtp.Payloader
	switch cfg.Encoding {
	case native.EncodingH264:
		payloader = &codecs.H264Payloader{}
	default:
		return nil, ErrUnsupportedEncoding
	}

	return &packetizer{
		config:    cfg,
		payloader: payloader,
		sequencer: rtp.NewRandomSequencer(),
	}, nil
}

// Timestamp converts a frame presentation time to RTP clock ticks.
func Timestamp(pts time.Duration, clockRate uint32) uint32 {
	return uint32(pts * time.Duration(clockRate) / time.Second)
}

func (p *packetizer) Packetize(f *frame.EncodedFrame) ([]*rtp.Packet, error) {
	if p.closed.Load() {
		return nil, ErrPacketizerClosed
	}
	if f == nil || len(f.Data) == 0 {
		return nil, ErrInvalidData
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	payloads := p.payloader.Payload(p.config.MTU-rtpHeaderSize, f.Data)
	if len(payloads) == 0 {
		return nil, nil
	}

	ts := Timestamp(f.Timestamp, p.config.ClockRate)
	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		p.seq = p.sequencer.NextSequenceNumber()
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.config.PayloadType,
				SequenceNumber: p.seq,
				Timestamp:      ts,
				SSRC:           p.config.SSRC,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

func (p *packetizer) PacketizeInto(f *frame.EncodedFrame, dst []byte, packets []PacketInfo) (int, error) {
	pkts, err := p.Packetize(f)
	if err != nil {
		return 0, err
	}
	if len(pkts) > len(packets) {
		return 0, ErrBufferTooSmall
	}

	offset := 0
	for i, pkt := range pkts {
		n, err := pkt.MarshalTo(dst[offset:])
		if err != nil {
			if errors.Is(err, io.ErrShortBuffer) {
				return 0, ErrBufferTooSmall
			}
			return 0, err
		}
		packets[i] = PacketInfo{Offset: offset, Size: n}
		offset += n
	}
	return len(pkts), nil
}

func (p *packetizer) MaxPackets(frameSize int) int {
	// FU-A adds two bytes per fragment; STAP-A headers ride in one extra packet.
	payloadPerPacket := int(p.config.MTU) - rtpHeaderSize - 2
	return (frameSize+payloadPerPacket-1)/payloadPerPacket + 1
}

func (p *packetizer) MaxPacketSize() int {
	return int(p.config.MTU)
}

func (p *packetizer) SequenceNumber() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

func (p *packetizer) Close() error {
	p.closed.Store(true)
	return nil
}
