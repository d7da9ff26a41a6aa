package emulator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/thesyncim/gommal/pkg/native"
)

// ErrNoBuffer is returned by Complete when the port holds no buffer.
var ErrNoBuffer = errors.New("emulator: port holds no buffer")

type port struct {
	h         native.Port
	comp      *component
	typ       native.PortType
	index     int
	name      string
	encodings []native.FourCC
	format    native.Format
	buf       native.BufferConfig
	enabled   bool
	cb        native.Callback
	userdata  uintptr
	params    map[native.ParamID][]byte

	// held are buffers sent to the port and not yet returned.
	held []*buffer
	// backlog holds produced data waiting for held buffers.
	backlog []*fragment
	conn    *connection
	worker  *worker
	capture chan struct{}
	seq     uint64
	// forceIDR makes the next H.264 frame an IDR.
	forceIDR bool
}

type fragment struct {
	data  []byte
	off   int
	flags uint32
	pts   int64
}

func (p *port) isVideo() bool { return p.format.Type == native.ESTypeVideo }

// recommend recomputes the buffer minimums and recommendations from the
// current format.
func (p *port) recommend() {
	f := p.format
	w := alignUp(f.Video.Width, 32)
	h := alignUp(f.Video.Height, 16)
	var size, minSize uint32
	switch f.Encoding {
	case native.EncodingOpaque:
		size, minSize = 128, 128
	case native.EncodingI420, native.EncodingNV12:
		size = w * h * 3 / 2
		minSize = size
	case native.EncodingYUYV:
		size = w * h * 2
		minSize = size
	case native.EncodingRGB24, native.EncodingBGR24:
		size = w * h * 3
		minSize = size
	case native.EncodingRGBA:
		size = w * h * 4
		minSize = size
	default:
		size, minSize = 64<<10, 2048
	}
	p.buf.NumMin = 1
	p.buf.NumRecommended = 3
	p.buf.SizeMin = minSize
	p.buf.SizeRecommended = size
	p.buf.AlignmentMin = 16
	p.buf.Num = max(p.buf.Num, p.buf.NumMin)
	p.buf.Size = max(p.buf.Size, p.buf.SizeMin)
}

func alignUp(v, align uint32) uint32 { return (v + align - 1) &^ (align - 1) }

func (e *Emulator) port(h native.Port) *port {
	p, ok := e.ports[h]
	if !ok {
		panic(fmt.Sprintf("emulator: unknown port handle %#x", uintptr(h)))
	}
	return p
}

func (e *Emulator) PortName(h native.Port) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port(h).name
}

func (e *Emulator) PortType(h native.Port) native.PortType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port(h).typ
}

func (e *Emulator) PortFormat(h native.Port) native.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port(h).format
}

func (e *Emulator) PortSetFormat(h native.Port, f native.Format) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.port(h).format = f
}

func (e *Emulator) PortFormatCommit(h native.Port) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpFormatCommit); ok {
		return st
	}
	return e.commitLocked(e.port(h))
}

func (e *Emulator) commitLocked(p *port) native.Status {
	if p.typ == native.PortTypeControl {
		return native.StatusSuccess
	}
	if p.enabled {
		return native.StatusInvalid
	}
	if !slices.Contains(p.encodings, p.format.Encoding) {
		return native.StatusInvalid
	}
	if p.isVideo() && (p.format.Video.Width == 0 || p.format.Video.Height == 0) {
		return native.StatusInvalid
	}
	p.recommend()
	if p.typ == native.PortTypeInput {
		// Encoders follow their input's geometry.
		for _, out := range p.comp.outputs {
			out.format.Video = p.format.Video
			out.recommend()
		}
	}
	return native.StatusSuccess
}

func (e *Emulator) PortBufferConfig(h native.Port) native.BufferConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port(h).buf
}

func (e *Emulator) PortSetBufferConfig(h native.Port, num, size uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.port(h)
	p.buf.Num, p.buf.Size = num, size
}

func (e *Emulator) PortEnable(h native.Port, cb native.Callback) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpPortEnable); ok {
		return st
	}
	p := e.port(h)
	switch {
	case p.enabled, p.conn != nil, cb == nil:
		return native.StatusInvalid
	case p.typ != native.PortTypeControl && (p.buf.Num < p.buf.NumMin || p.buf.Size < p.buf.SizeMin):
		return native.StatusInvalid
	}
	p.enabled = true
	p.cb = cb
	p.worker = e.startWorker(p.h, cb)
	return native.StatusSuccess
}

func (e *Emulator) PortDisable(h native.Port) native.Status {
	e.mu.Lock()
	if st, ok := e.fault(OpPortDisable); ok {
		e.mu.Unlock()
		return st
	}
	p := e.port(h)
	if !p.enabled || p.conn != nil {
		e.mu.Unlock()
		return native.StatusInvalid
	}
	t := e.disablePortLocked(p)
	e.mu.Unlock()
	t.run()
	return native.StatusSuccess
}

// teardown finishes a port disable outside the state lock: the worker
// delivers what it already has, then the held buffers come back through
// the callback.
type teardown struct {
	w    *worker
	cb   native.Callback
	port native.Port
	held []native.Buffer
}

func (t teardown) run() {
	if t.w != nil {
		t.w.stop()
	}
	if t.cb == nil {
		return
	}
	for _, b := range t.held {
		t.cb(t.port, b)
	}
}

func (e *Emulator) disablePortLocked(p *port) teardown {
	p.stopCapture()
	t := teardown{w: p.worker, cb: p.cb, port: p.h}
	for _, b := range p.held {
		b.length, b.flags = 0, 0
		t.held = append(t.held, b.h)
	}
	p.enabled = false
	p.held = nil
	p.backlog = nil
	p.worker = nil
	p.cb = nil
	return t
}

func (e *Emulator) PortIsEnabled(h native.Port) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port(h).enabled
}

func (e *Emulator) PortSetUserData(h native.Port, data uintptr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.port(h).userdata = data
}

func (e *Emulator) PortUserData(h native.Port) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.ports[h]; ok {
		return p.userdata
	}
	return 0
}

func (e *Emulator) PortSendBuffer(h native.Port, bh native.Buffer) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpPortSendBuffer); ok {
		return st
	}
	p := e.port(h)
	b, ok := e.buffers[bh]
	if !ok || !p.enabled || p.worker == nil {
		return native.StatusInvalid
	}
	if p.typ == native.PortTypeInput {
		e.consumeInputLocked(p, b)
		return native.StatusSuccess
	}
	b.length, b.flags, b.pts = 0, 0, 0
	p.held = append(p.held, b)
	e.pumpLocked(p)
	return native.StatusSuccess
}

// consumeInputLocked processes a buffer the application fed to an input
// port and returns it through the input's callback.
func (e *Emulator) consumeInputLocked(p *port, b *buffer) {
	switch p.comp.kind {
	case kindImageEncoder, kindVideoEncoder:
		if p.comp.enabled && len(p.comp.outputs) > 0 {
			e.encodeLocked(p.comp.outputs[0], p.format.Video, b.pts)
		}
	}
	p.worker.push(delivery{buf: b.h})
}

// emitLocked queues data for delivery on output p, split across as many
// held buffers as it takes.
func (e *Emulator) emitLocked(p *port, data []byte, flags uint32, pts int64) {
	if !p.enabled || p.worker == nil {
		e.dropped++
		return
	}
	if len(p.backlog) >= e.cfg.MaxBacklog {
		e.dropped++
		return
	}
	p.backlog = append(p.backlog, &fragment{data: data, flags: flags, pts: pts})
	e.pumpLocked(p)
}

// pumpLocked moves backlog data into held buffers and hands them to the
// port worker.
func (e *Emulator) pumpLocked(p *port) {
	for len(p.held) > 0 && len(p.backlog) > 0 {
		f := p.backlog[0]
		b := p.held[0]
		p.held = p.held[1:]

		n := copy(b.mem, f.data[f.off:])
		b.length = n
		b.pts = f.pts
		b.flags = f.flags &^ native.BufferFlagFrame
		if f.off == 0 {
			b.flags |= f.flags & native.BufferFlagFrameStart
		}
		f.off += n
		if f.off == len(f.data) {
			b.flags |= f.flags & native.BufferFlagFrameEnd
			p.backlog = p.backlog[1:]
		}
		p.worker.push(delivery{buf: b.h})
	}
}

// Complete fills one buffer held by port p with payload and flags and runs
// the port callback with it on the port's worker goroutine. It returns once
// the callback has returned.
func (e *Emulator) Complete(h native.Port, payload []byte, flags uint32) error {
	e.mu.Lock()
	p, ok := e.ports[h]
	if !ok || !p.enabled || p.worker == nil {
		e.mu.Unlock()
		return fmt.Errorf("emulator: port %#x is not enabled", uintptr(h))
	}
	if len(p.held) == 0 {
		e.mu.Unlock()
		return ErrNoBuffer
	}
	b := p.held[0]
	if len(payload) > len(b.mem) {
		e.mu.Unlock()
		return fmt.Errorf("emulator: payload of %d bytes exceeds buffer size %d", len(payload), len(b.mem))
	}
	p.held = p.held[1:]
	b.length = copy(b.mem, payload)
	b.flags = flags
	done := make(chan struct{})
	p.worker.push(delivery{buf: b.h, done: done})
	e.mu.Unlock()
	<-done
	return nil
}

// Held returns the number of buffers port h holds.
func (e *Emulator) Held(h native.Port) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.ports[h]; ok {
		return len(p.held)
	}
	return 0
}
