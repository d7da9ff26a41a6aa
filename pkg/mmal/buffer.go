package mmal

import (
	"strings"
	"sync/atomic"

	"github.com/thesyncim/gommal/pkg/native"
)

// Flags is the flag word of a buffer header.
type Flags uint32

const (
	FlagEOS                Flags = Flags(native.BufferFlagEOS)
	FlagFrameStart         Flags = Flags(native.BufferFlagFrameStart)
	FlagFrameEnd           Flags = Flags(native.BufferFlagFrameEnd)
	FlagFrame              Flags = Flags(native.BufferFlagFrame)
	FlagKeyframe           Flags = Flags(native.BufferFlagKeyframe)
	FlagDiscontinuity      Flags = Flags(native.BufferFlagDiscontinuity)
	FlagConfig             Flags = Flags(native.BufferFlagConfig)
	FlagEncrypted          Flags = Flags(native.BufferFlagEncrypted)
	FlagCodecSideInfo      Flags = Flags(native.BufferFlagCodecSideInfo)
	FlagSnapshot           Flags = Flags(native.BufferFlagSnapshot)
	FlagCorrupted          Flags = Flags(native.BufferFlagCorrupted)
	FlagTransmissionFailed Flags = Flags(native.BufferFlagTransmissionFailed)
	FlagDecodeOnly         Flags = Flags(native.BufferFlagDecodeOnly)
	FlagNALEnd             Flags = Flags(native.BufferFlagNALEnd)
	FlagUser0              Flags = Flags(native.BufferFlagUser0)
	FlagUser1              Flags = Flags(native.BufferFlagUser1)
	FlagUser2              Flags = Flags(native.BufferFlagUser2)
	FlagUser3              Flags = Flags(native.BufferFlagUser3)

	FlagVideoInterlaced      Flags = Flags(native.BufferVideoFlagInterlaced)
	FlagVideoTopFieldFirst   Flags = Flags(native.BufferVideoFlagTopFieldFirst)
	FlagVideoDisplayExternal Flags = Flags(native.BufferVideoFlagDisplayExternal)
	FlagVideoProtected       Flags = Flags(native.BufferVideoFlagProtected)

	// FlagTerminalFrame marks the last buffer of a frame, good or not.
	FlagTerminalFrame = FlagFrameEnd | FlagTransmissionFailed
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagEOS, "EOS"},
	{FlagFrameStart, "FRAME_START"},
	{FlagFrameEnd, "FRAME_END"},
	{FlagKeyframe, "KEYFRAME"},
	{FlagDiscontinuity, "DISCONTINUITY"},
	{FlagConfig, "CONFIG"},
	{FlagEncrypted, "ENCRYPTED"},
	{FlagCodecSideInfo, "CODECSIDEINFO"},
	{FlagSnapshot, "SNAPSHOT"},
	{FlagCorrupted, "CORRUPTED"},
	{FlagTransmissionFailed, "TRANSMISSION_FAILED"},
	{FlagDecodeOnly, "DECODEONLY"},
	{FlagNALEnd, "NAL_END"},
	{FlagVideoInterlaced, "INTERLACED"},
	{FlagVideoTopFieldFirst, "TOP_FIELD_FIRST"},
	{FlagVideoDisplayExternal, "DISPLAY_EXTERNAL"},
	{FlagVideoProtected, "PROTECTED"},
	{FlagUser0, "USER0"},
	{FlagUser1, "USER1"},
	{FlagUser2, "USER2"},
	{FlagUser3, "USER3"},
}

// Has reports whether any bit of mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask != 0 }

// HasAll reports whether every bit of mask is set.
func (f Flags) HasAll(mask Flags) bool { return f&mask == mask }

// IsTerminalFrame reports whether the buffer ends a frame.
func (f Flags) IsTerminalFrame() bool { return f.Has(FlagTerminalFrame) }

// String returns the set flag names joined with "|".
func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var names []string
	for _, n := range flagNames {
		if f.Has(n.f) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// BufferRef is one owner of a native buffer header reference. Pool buffers
// go back to their pool when the last reference is released.
type BufferRef struct {
	b        native.Backend
	buf      native.Buffer
	released atomic.Bool
}

// wrapBuffer takes over the reference the caller holds on buf.
func wrapBuffer(b native.Backend, buf native.Buffer) *BufferRef {
	if buf == 0 {
		return nil
	}
	return &BufferRef{b: b, buf: buf}
}

// Native returns the native buffer header.
func (r *BufferRef) Native() native.Buffer { return r.buf }

// Flags returns the header flags.
func (r *BufferRef) Flags() Flags { return Flags(r.b.BufferFlags(r.buf)) }

// PTS returns the presentation timestamp in microseconds.
func (r *BufferRef) PTS() int64 { return r.b.BufferPTS(r.buf) }

// Clone acquires another reference.
func (r *BufferRef) Clone() *BufferRef {
	r.b.BufferAcquire(r.buf)
	return &BufferRef{b: r.b, buf: r.buf}
}

// Release drops this reference. Calling it twice is a no-op.
func (r *BufferRef) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	r.b.BufferRelease(r.buf)
}

// take hands the native reference to the caller and invalidates r.
func (r *BufferRef) take() native.Buffer {
	r.released.Store(true)
	return r.buf
}

// Do locks the payload, calls f with the flags and the payload window, and
// unlocks on every path out of f. The payload aliases native memory and
// must not be retained after f returns.
func (r *BufferRef) Do(f func(flags Flags, payload []byte) error) error {
	flags := r.Flags()
	if err := statusError(r.b.BufferLock(r.buf), "could not lock buffer"); err != nil {
		return err
	}
	defer r.b.BufferUnlock(r.buf)
	return f(flags, r.b.BufferPayload(r.buf))
}
