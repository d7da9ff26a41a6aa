package emulator

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/thesyncim/gommal/pkg/native"
)

const capturePortStill = 2

func (p *port) stopCapture() {
	if p.capture != nil {
		close(p.capture)
		p.capture = nil
	}
}

// startCaptureLocked starts producing frames on camera output p: one frame
// on the still port, a frame per frame interval on the others.
func (e *Emulator) startCaptureLocked(p *port) {
	if p.capture != nil {
		return
	}
	stop := make(chan struct{})
	p.capture = stop
	still := p.index == capturePortStill
	interval := e.frameInterval(p.format.Video.FrameRate)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.captureLoop(p, stop, still, interval)
	}()
}

func (e *Emulator) captureLoop(p *port, stop chan struct{}, still bool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		e.mu.Lock()
		select {
		case <-stop:
			e.mu.Unlock()
			return
		default:
		}
		e.produceLocked(p, interval)
		if still {
			if p.capture == stop {
				p.capture = nil
				p.params[native.ParamCapture] = encodeBody(native.False)
			}
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// produceLocked generates one frame on camera output p and routes it to
// the connected component or to p itself.
func (e *Emulator) produceLocked(p *port, interval time.Duration) {
	if !p.comp.enabled {
		e.dropped++
		return
	}
	p.seq++
	e.frames++
	pts := int64(p.seq-1) * interval.Microseconds()
	if c := p.conn; c != nil {
		if !c.enabled {
			e.dropped++
			return
		}
		switch c.in.comp.kind {
		case kindImageEncoder, kindVideoEncoder:
			if !c.in.comp.enabled {
				e.dropped++
				return
			}
			e.encodeLocked(c.in.comp.outputs[0], c.in.format.Video, pts)
		}
		return
	}
	e.emitLocked(p, rawFrame(p.format, p.seq), native.BufferFlagFrame, pts)
}

// encodeLocked produces one encoded frame of geometry v on encoder output
// out.
func (e *Emulator) encodeLocked(out *port, v native.VideoFormat, pts int64) {
	out.seq++
	img := testPattern(int(v.Width), int(v.Height), out.seq)
	switch out.format.Encoding {
	case native.EncodingJPEG:
		e.emitLocked(out, encodeJPEG(img, int(paramUint32(out, native.ParamJPEGQFactor, 85))), native.BufferFlagFrame, pts)
	case native.EncodingMJPEG:
		e.emitLocked(out, encodeJPEG(img, 85), native.BufferFlagFrame|native.BufferFlagKeyframe, pts)
	case native.EncodingPNG:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			e.dropped++
			return
		}
		e.emitLocked(out, buf.Bytes(), native.BufferFlagFrame, pts)
	case native.EncodingH264:
		e.encodeH264Locked(out, v, pts)
	default:
		e.dropped++
	}
}

func (e *Emulator) encodeH264Locked(out *port, v native.VideoFormat, pts int64) {
	headers := append(nal(0x67, 12, out.seq), nal(0x68, 4, out.seq)...)
	if out.seq == 1 {
		e.emitLocked(out, headers, native.BufferFlagConfig|native.BufferFlagFrameEnd, pts)
	}
	intra := uint64(paramUint32(out, native.ParamIntraPeriod, 60))
	if intra == 0 {
		intra = 1
	}
	size := e.frameBytes(out, v)
	var data []byte
	flags := native.BufferFlagFrame
	if (out.seq-1)%intra == 0 || out.forceIDR {
		out.forceIDR = false
		if out.seq > 1 && paramUint32(out, native.ParamVideoInlineHeader, 0) != native.False {
			data = append(data, headers...)
		}
		data = append(data, nal(0x65, size, out.seq)...)
		flags |= native.BufferFlagKeyframe
	} else {
		data = nal(0x41, size/4, out.seq)
	}
	e.emitLocked(out, data, flags, pts)
}

// frameBytes sizes a synthetic IDR slice from the bitrate and frame rate.
func (e *Emulator) frameBytes(out *port, v native.VideoFormat) int {
	bitrate := out.format.Bitrate
	if bitrate == 0 {
		bitrate = 300000
	}
	fps := e.cfg.FrameRate
	if v.FrameRate.Num > 0 && v.FrameRate.Den > 0 {
		fps = max(1, int(v.FrameRate.Num/v.FrameRate.Den))
	}
	return max(64, int(bitrate)/8/fps)
}

// nal returns an Annex-B NAL unit with a start code. Payload bytes have the
// high bit set so they never form a start code.
func nal(header byte, size int, seq uint64) []byte {
	b := make([]byte, 0, 5+size)
	b = append(b, 0, 0, 0, 1, header)
	for i := 0; i < size; i++ {
		b = append(b, 0x80|byte(seq+uint64(i))&0x7f)
	}
	return b
}

func paramUint32(p *port, id native.ParamID, def uint32) uint32 {
	body, ok := p.params[id]
	if !ok || len(body) < 4 {
		return def
	}
	return binary.LittleEndian.Uint32(body)
}

// testPattern renders a moving gradient.
func testPattern(w, h int, seq uint64) *image.YCbCr {
	w, h = max(w, 16), max(h, 16)
	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	shift := byte(seq * 4)
	for y := 0; y < h; y++ {
		row := img.Y[y*img.YStride:]
		for x := 0; x < w; x++ {
			row[x] = byte(x+y) + shift
		}
	}
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			i := y*img.CStride + x
			img.Cb[i] = byte(x*2) + shift
			img.Cr[i] = byte(y*2) - shift
		}
	}
	return img
}

func encodeJPEG(img image.Image, quality int) []byte {
	if quality < 1 || quality > 100 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil
	}
	return buf.Bytes()
}

// rawFrame fills a frame in the port's pixel encoding.
func rawFrame(f native.Format, seq uint64) []byte {
	w := int(alignUp(f.Video.Width, 32))
	h := int(alignUp(f.Video.Height, 16))
	var bpp2 int // bytes per pixel, doubled
	switch f.Encoding {
	case native.EncodingOpaque:
		b := make([]byte, 128)
		binary.LittleEndian.PutUint64(b, seq)
		return b
	case native.EncodingI420, native.EncodingNV12:
		bpp2 = 3
	case native.EncodingYUYV:
		bpp2 = 4
	case native.EncodingRGB24, native.EncodingBGR24:
		bpp2 = 6
	default:
		bpp2 = 8
	}
	b := make([]byte, w*h*bpp2/2)
	shift := byte(seq * 4)
	for i := range b {
		b[i] = byte(i) + shift
	}
	return b
}
