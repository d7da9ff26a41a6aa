package depacketizer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/packetizer"
)

func nal(header byte, size int) []byte {
	b := []byte{0, 0, 0, 1, header}
	for i := 0; i < size; i++ {
		b = append(b, 0x80|byte(i)&0x7f)
	}
	return b
}

func encoded(data []byte, pts time.Duration, key bool) *frame.EncodedFrame {
	f := &frame.EncodedFrame{Data: data, Timestamp: pts, Flags: mmal.FlagFrame}
	if key {
		f.Flags |= mmal.FlagKeyframe
	}
	return f
}

func packetize(t *testing.T, p packetizer.Packetizer, f *frame.EncodedFrame) []*rtp.Packet {
	t.Helper()
	pkts, err := p.Packetize(f)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	return pkts
}

func newPair(t *testing.T) (packetizer.Packetizer, Depacketizer) {
	t.Helper()
	p, err := packetizer.New(packetizer.Config{SSRC: 1, PayloadType: 96})
	if err != nil {
		t.Fatalf("packetizer.New: %v", err)
	}
	d, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Close()
		_ = d.Close()
	})
	return p, d
}

func TestDepacketizerErrors(t *testing.T) {
	errs := []error{
		ErrDepacketizerClosed,
		ErrNeedMoreData,
		ErrBufferTooSmall,
		ErrInvalidPacket,
		ErrUnsupportedEncoding,
	}

	for _, err := range errs {
		if err == nil {
			t.Error("Error should not be nil")
		}
		if err.Error() == "" {
			t.Error("Error message should not be empty")
		}
	}
}

func TestDepacketizerInterface(t *testing.T) {
	// Compile-time check
	var _ Depacketizer = (*depacketizer)(nil)
}

func TestUnsupportedEncoding(t *testing.T) {
	if _, err := New(Config{Encoding: native.EncodingMJPEG}); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("New(MJPEG) error = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestRoundTrip(t *testing.T) {
	p, d := newPair(t)

	sps, pps := nal(0x67, 12), nal(0x68, 4)
	config := append(append([]byte{}, sps...), pps...)
	if pkts := packetize(t, p, encoded(config, 0, false)); len(pkts) != 0 {
		t.Fatalf("config frame produced %d packets, want 0", len(pkts))
	}

	idr := nal(0x65, 3000)
	pkts := packetize(t, p, encoded(idr, time.Second, true))
	if len(pkts) < 4 {
		t.Fatalf("IDR produced %d packets, want STAP-A plus FU-A fragments", len(pkts))
	}
	for _, pkt := range pkts {
		b, err := pkt.Marshal()
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if err := d.Push(b); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	want := append(append([]byte{}, config...), idr...)
	small := make([]byte, 10)
	if _, err := d.PopInto(small); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("PopInto(small) error = %v, want ErrBufferTooSmall", err)
	}
	dst := make([]byte, 8192)
	info, err := d.PopInto(dst)
	if err != nil {
		t.Fatalf("PopInto: %v", err)
	}
	if !bytes.Equal(dst[:info.Size], want) {
		t.Errorf("frame = %x..., want %x...", dst[:16], want[:16])
	}
	if !info.IsKeyframe {
		t.Error("IsKeyframe should be true")
	}
	if info.Timestamp != 90000 {
		t.Errorf("Timestamp = %d, want 90000", info.Timestamp)
	}
	if _, err := d.PopInto(dst); !errors.Is(err, ErrNeedMoreData) {
		t.Errorf("PopInto on empty error = %v, want ErrNeedMoreData", err)
	}
}

func TestPopEncodedFrame(t *testing.T) {
	p, d := newPair(t)

	slice := nal(0x41, 200)
	for _, pkt := range packetize(t, p, encoded(slice, 500*time.Millisecond, false)) {
		if err := d.PushPacket(pkt); err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
	}
	f := d.Pop()
	if f == nil {
		t.Fatal("Pop returned nil")
	}
	if !bytes.Equal(f.Data, slice) {
		t.Errorf("Data = %x, want %x", f.Data, slice)
	}
	if f.IsKeyframe() {
		t.Error("P slice reported as keyframe")
	}
	if f.Timestamp != 500*time.Millisecond {
		t.Errorf("Timestamp = %v, want 500ms", f.Timestamp)
	}
	if d.Pop() != nil {
		t.Error("Pop on empty should return nil")
	}
}

func TestPacketLoss(t *testing.T) {
	p, d := newPair(t)

	first := packetize(t, p, encoded(nal(0x65, 3000), time.Second, true))
	second := packetize(t, p, encoded(nal(0x41, 3000), 2*time.Second, false))

	// Lose a middle fragment of the first frame.
	for i, pkt := range first {
		if i == 1 {
			continue
		}
		if err := d.PushPacket(pkt); err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
	}
	for _, pkt := range second {
		if err := d.PushPacket(pkt); err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
	}

	if got := d.Lost(); got != 1 {
		t.Errorf("Lost = %d, want 1", got)
	}
	f := d.Pop()
	if f == nil {
		t.Fatal("second frame missing")
	}
	if f.Timestamp != 2*time.Second {
		t.Errorf("Timestamp = %v, want 2s", f.Timestamp)
	}
	if d.Pop() != nil {
		t.Error("broken frame was delivered")
	}
}

func TestMissingMarker(t *testing.T) {
	p, d := newPair(t)

	first := packetize(t, p, encoded(nal(0x41, 3000), time.Second, false))
	second := packetize(t, p, encoded(nal(0x41, 100), 2*time.Second, false))

	// The marker packet of the first frame is lost.
	for _, pkt := range append(first[:len(first)-1], second...) {
		if err := d.PushPacket(pkt); err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
	}
	if got := d.Lost(); got != 1 {
		t.Errorf("Lost = %d, want 1", got)
	}
	if f := d.Pop(); f == nil || f.Timestamp != 2*time.Second {
		t.Errorf("Pop = %+v, want the 2s frame", f)
	}
}

func TestDepacketizerClose(t *testing.T) {
	_, d := newPair(t)

	if err := d.Push([]byte{0x80}); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("Push(short) error = %v, want ErrInvalidPacket", err)
	}
	if err := d.Push(nil); err != nil {
		t.Errorf("Push(nil) error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := d.Push([]byte{0x80}); !errors.Is(err, ErrDepacketizerClosed) {
		t.Errorf("Push after Close error = %v, want ErrDepacketizerClosed", err)
	}
	if _, err := d.PopInto(nil); !errors.Is(err, ErrDepacketizerClosed) {
		t.Errorf("PopInto after Close error = %v, want ErrDepacketizerClosed", err)
	}
}
