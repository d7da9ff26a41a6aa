package ffi

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/thesyncim/gommal/pkg/native"
)

// Backend implements native.Backend over the loaded MMAL libraries.
type Backend struct{}

var _ native.Backend = (*Backend)(nil)

// NewBackend loads the libraries if needed and returns the binding.
func NewBackend() (*Backend, error) {
	if err := LoadLibrary(); err != nil {
		return nil, err
	}
	return &Backend{}, nil
}

// Init runs bcm_host_init, vcos_init and mmal_vc_init. Call it once per
// process before creating components.
func (*Backend) Init() error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	bcmHostInit()
	if rc := vcosInit(); rc != 0 {
		return fmt.Errorf("vcos_init failed: %d", rc)
	}
	if err := native.Status(mmalVCInit()).Err(); err != nil {
		return fmt.Errorf("mmal_vc_init: %w", err)
	}
	return nil
}

func (*Backend) RGBOrderFixed(p native.Port) bool {
	return mmalUtilRGBOrderFixed(uintptr(p)) != 0
}

// Components

func (*Backend) ComponentCreate(name string) (native.Component, native.Status) {
	out := new(uintptr)
	st := native.Status(mmalComponentCreate(name, out))
	if st != native.StatusSuccess {
		return 0, st
	}
	return native.Component(*out), st
}

func (*Backend) ComponentAcquire(c native.Component) { mmalComponentAcquire(uintptr(c)) }

func (*Backend) ComponentRelease(c native.Component) native.Status {
	return native.Status(mmalComponentRelease(uintptr(c)))
}

func (*Backend) ComponentDestroy(c native.Component) native.Status {
	return native.Status(mmalComponentDestroy(uintptr(c)))
}

func (*Backend) ComponentEnable(c native.Component) native.Status {
	return native.Status(mmalComponentEnable(uintptr(c)))
}

func (*Backend) ComponentDisable(c native.Component) native.Status {
	return native.Status(mmalComponentDisable(uintptr(c)))
}

func (*Backend) ComponentIsEnabled(c native.Component) bool { return component(c).isEnabled != 0 }

func (*Backend) ComponentName(c native.Component) string { return goString(component(c).name) }

func (*Backend) ControlPort(c native.Component) native.Port { return native.Port(component(c).control) }

func (*Backend) InputCount(c native.Component) int { return int(component(c).inputNum) }

func (*Backend) OutputCount(c native.Component) int { return int(component(c).outputNum) }

func (*Backend) InputPort(c native.Component, n int) native.Port {
	cc := component(c)
	if n < 0 || n >= int(cc.inputNum) {
		return 0
	}
	return portAt(cc.input, n)
}

func (*Backend) OutputPort(c native.Component, n int) native.Port {
	cc := component(c)
	if n < 0 || n >= int(cc.outputNum) {
		return 0
	}
	return portAt(cc.output, n)
}

// Ports

func (*Backend) PortName(p native.Port) string { return goString(port(p).name) }

func (*Backend) PortType(p native.Port) native.PortType { return native.PortType(port(p).typ) }

func (*Backend) PortFormat(p native.Port) native.Format {
	f := esFormat(port(p))
	out := native.Format{
		Type:            native.ESType(f.typ),
		Encoding:        native.FourCC(f.encoding),
		EncodingVariant: native.FourCC(f.encodingVariant),
		Bitrate:         f.bitrate,
		Flags:           f.flags,
	}
	if f.es != 0 {
		out.Video = *videoFormat(f)
	}
	return out
}

// PortSetFormat writes f into the port's format. The elementary stream
// type is owned by the component and left untouched.
func (*Backend) PortSetFormat(p native.Port, f native.Format) {
	dst := esFormat(port(p))
	dst.encoding = uint32(f.Encoding)
	dst.encodingVariant = uint32(f.EncodingVariant)
	dst.bitrate = f.Bitrate
	dst.flags = f.Flags
	if dst.es != 0 {
		*videoFormat(dst) = f.Video
	}
}

func (*Backend) PortFormatCommit(p native.Port) native.Status {
	return native.Status(mmalPortFormatCommit(uintptr(p)))
}

func (*Backend) PortBufferConfig(p native.Port) native.BufferConfig {
	pp := port(p)
	return native.BufferConfig{
		NumMin:          pp.bufferNumMin,
		SizeMin:         pp.bufferSizeMin,
		AlignmentMin:    pp.bufferAlignmentMin,
		NumRecommended:  pp.bufferNumRecommended,
		SizeRecommended: pp.bufferSizeRecommended,
		Num:             pp.bufferNum,
		Size:            pp.bufferSize,
	}
}

func (*Backend) PortSetBufferConfig(p native.Port, num, size uint32) {
	pp := port(p)
	pp.bufferNum = num
	pp.bufferSize = size
}

func (*Backend) PortEnable(p native.Port, cb native.Callback) native.Status {
	var fn uintptr
	if cb != nil {
		if fn = trampoline(); fn == 0 {
			return native.StatusNotImplemented
		}
		registerPortCallback(p, cb)
	}
	st := native.Status(mmalPortEnable(uintptr(p), fn))
	if st != native.StatusSuccess && cb != nil {
		unregisterPortCallback(p)
	}
	return st
}

// PortDisable returns once the port has flushed; buffers returned during
// the flush still reach the callback, so it is unregistered afterwards.
func (*Backend) PortDisable(p native.Port) native.Status {
	st := native.Status(mmalPortDisable(uintptr(p)))
	if st == native.StatusSuccess {
		unregisterPortCallback(p)
	}
	return st
}

func (*Backend) PortIsEnabled(p native.Port) bool { return port(p).isEnabled != 0 }

func (*Backend) PortSetUserData(p native.Port, data uintptr) { port(p).userdata = data }

func (*Backend) PortUserData(p native.Port) uintptr { return port(p).userdata }

func (*Backend) PortSendBuffer(p native.Port, b native.Buffer) native.Status {
	return native.Status(mmalPortSendBuffer(uintptr(p), uintptr(b)))
}

func (*Backend) PortParameterSet(p native.Port, record []byte) native.Status {
	if len(record) < native.ParamHeaderSize {
		return native.StatusInvalid
	}
	return native.Status(mmalPortParameterSet(uintptr(p), uintptr(unsafe.Pointer(&record[0]))))
}

func (*Backend) PortParameterGet(p native.Port, record []byte) native.Status {
	if len(record) < native.ParamHeaderSize {
		return native.StatusInvalid
	}
	return native.Status(mmalPortParameterGet(uintptr(p), uintptr(unsafe.Pointer(&record[0]))))
}

// Pools and queues

func (*Backend) PortPoolCreate(p native.Port, num, size uint32) native.Pool {
	return native.Pool(mmalPortPoolCreate(uintptr(p), num, size))
}

func (*Backend) PortPoolDestroy(p native.Port, pl native.Pool) {
	mmalPortPoolDestroy(uintptr(p), uintptr(pl))
}

func (*Backend) PoolQueue(pl native.Pool) native.Queue { return native.Queue(pool(pl).queue) }

func (*Backend) QueueCreate() native.Queue { return native.Queue(mmalQueueCreate()) }

func (*Backend) QueueDestroy(q native.Queue) { mmalQueueDestroy(uintptr(q)) }

func (*Backend) QueueGet(q native.Queue) native.Buffer {
	return native.Buffer(mmalQueueGet(uintptr(q)))
}

func (*Backend) QueuePut(q native.Queue, b native.Buffer) { mmalQueuePut(uintptr(q), uintptr(b)) }

func (*Backend) QueuePutBack(q native.Queue, b native.Buffer) {
	mmalQueuePutBack(uintptr(q), uintptr(b))
}

func (*Backend) QueueWait(q native.Queue) native.Buffer {
	return native.Buffer(mmalQueueWait(uintptr(q)))
}

func (*Backend) QueueTimedWait(q native.Queue, timeout time.Duration) native.Buffer {
	return native.Buffer(mmalQueueTimedWait(uintptr(q), uint32(timeout.Milliseconds())))
}

func (*Backend) QueueLength(q native.Queue) int { return int(mmalQueueLength(uintptr(q))) }

// Buffer headers

func (*Backend) BufferAcquire(b native.Buffer) { mmalBufferHeaderAcquire(uintptr(b)) }

func (*Backend) BufferRelease(b native.Buffer) { mmalBufferHeaderRelease(uintptr(b)) }

func (*Backend) BufferLock(b native.Buffer) native.Status {
	return native.Status(mmalBufferHeaderMemLock(uintptr(b)))
}

func (*Backend) BufferUnlock(b native.Buffer) { mmalBufferHeaderMemUnlock(uintptr(b)) }

func (*Backend) BufferFlags(b native.Buffer) uint32 { return header(b).flags }

func (*Backend) BufferPTS(b native.Buffer) int64 { return header(b).pts }

func (*Backend) BufferPayload(b native.Buffer) []byte {
	h := header(b)
	if h.data == 0 || h.length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(h.data+uintptr(h.offset))), h.length)
}

// Connections

func (*Backend) ConnectionCreate(out, in native.Port, flags uint32) (native.Connection, native.Status) {
	conn := new(uintptr)
	st := native.Status(mmalConnectionCreate(conn, uintptr(out), uintptr(in), flags))
	if st != native.StatusSuccess {
		return 0, st
	}
	return native.Connection(*conn), st
}

func (*Backend) ConnectionAcquire(c native.Connection) { mmalConnectionAcquire(uintptr(c)) }

func (*Backend) ConnectionRelease(c native.Connection) native.Status {
	return native.Status(mmalConnectionRelease(uintptr(c)))
}

func (*Backend) ConnectionDestroy(c native.Connection) native.Status {
	return native.Status(mmalConnectionDestroy(uintptr(c)))
}

func (*Backend) ConnectionEnable(c native.Connection) native.Status {
	return native.Status(mmalConnectionEnable(uintptr(c)))
}

func (*Backend) ConnectionDisable(c native.Connection) native.Status {
	return native.Status(mmalConnectionDisable(uintptr(c)))
}

func (*Backend) ConnectionIsEnabled(c native.Connection) bool {
	return connection(c).isEnabled != 0
}
