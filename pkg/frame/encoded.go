package frame

import (
	"context"
	"errors"
	"time"

	"github.com/thesyncim/gommal/pkg/mmal"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrShortPayload      = errors.New("payload shorter than buffer layout")
	ErrLayoutMismatch    = errors.New("frame does not match buffer layout")
	ErrFrameTooLarge     = errors.New("encoded frame exceeds size limit")
)

// EncodedFrame is one complete encoder output: a JPEG image, an H.264
// access unit or a codec config record.
type EncodedFrame struct {
	Data []byte
	// Timestamp is the presentation time of the first fragment.
	Timestamp time.Duration
	Flags     mmal.Flags
}

// IsKeyframe reports whether the frame can be decoded on its own.
func (f *EncodedFrame) IsKeyframe() bool { return f.Flags.Has(mmal.FlagKeyframe) }

// IsConfig reports whether the frame carries codec headers only (SPS/PPS).
func (f *EncodedFrame) IsConfig() bool { return f.Flags.Has(mmal.FlagConfig) }

// Corrupted reports whether the encoder flagged a transmission failure.
func (f *EncodedFrame) Corrupted() bool {
	return f.Flags.Has(mmal.FlagTransmissionFailed | mmal.FlagCorrupted)
}

// Assembler joins buffer fragments into whole encoded frames. An encoder
// splits a frame across buffers when it does not fit one; the last
// fragment carries FRAME_END or TRANSMISSION_FAILED.
//
// An Assembler is not safe for concurrent use.
type Assembler struct {
	// MaxSize bounds a frame; 0 means no limit. A frame growing past it
	// is dropped and ErrFrameTooLarge returned once.
	MaxSize int

	buf      []byte
	flags    mmal.Flags
	pts      time.Duration
	started  bool
	overflow bool
}

// Push appends one fragment. It returns the finished frame when the
// fragment completes one. The payload is copied, so it may alias buffer
// memory.
func (a *Assembler) Push(flags mmal.Flags, payload []byte, pts time.Duration) (*EncodedFrame, error) {
	if !a.started {
		a.started = true
		a.pts = pts
	}
	a.flags |= flags
	if !a.overflow {
		if a.MaxSize > 0 && len(a.buf)+len(payload) > a.MaxSize {
			a.overflow = true
			a.buf = a.buf[:0]
		} else {
			a.buf = append(a.buf, payload...)
		}
	}
	if !flags.IsTerminalFrame() && !flags.Has(mmal.FlagEOS) {
		return nil, nil
	}
	defer a.Reset()
	if a.overflow {
		return nil, ErrFrameTooLarge
	}
	if len(a.buf) == 0 {
		return nil, nil
	}
	f := &EncodedFrame{
		Data:      make([]byte, len(a.buf)),
		Timestamp: a.pts,
		Flags:     a.flags &^ (mmal.FlagFrameStart | mmal.FlagFrameEnd),
	}
	copy(f.Data, a.buf)
	return f, nil
}

// Pending returns the number of bytes buffered for the current frame.
func (a *Assembler) Pending() int { return len(a.buf) }

// Reset drops any partial frame.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.flags = 0
	a.pts = 0
	a.started = false
	a.overflow = false
}

// Source is the consumer side of an output port sink.
type Source interface {
	Await(ctx context.Context) (*mmal.BufferRef, error)
	Consume(r *mmal.BufferRef, f func(flags mmal.Flags, payload []byte) (bool, error)) (bool, error)
}

// Next reads completed buffers from src into a until a frame is finished.
// Every buffer is recycled to the port whether or not it ends a frame.
func Next(ctx context.Context, src Source, a *Assembler) (*EncodedFrame, error) {
	for {
		r, err := src.Await(ctx)
		if err != nil {
			return nil, err
		}
		pts := time.Duration(r.PTS()) * time.Microsecond
		var f *EncodedFrame
		var perr error
		if _, err := src.Consume(r, func(flags mmal.Flags, payload []byte) (bool, error) {
			f, perr = a.Push(flags, payload, pts)
			return true, nil
		}); err != nil {
			return nil, err
		}
		if perr != nil {
			return nil, perr
		}
		if f != nil {
			return f, nil
		}
	}
}
