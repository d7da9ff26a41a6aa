// Package native describes the opaque handle API of the MMAL pipeline.
//
// Everything above this package talks to the pipeline only through Backend.
// Two implementations exist: the libmmal binding in internal/ffi and the
// in-process emulation in pkg/emulator.
package native

import "time"

// Opaque native handles. A zero value is the native NULL.
type (
	Component  uintptr
	Port       uintptr
	Buffer     uintptr
	Pool       uintptr
	Queue      uintptr
	Connection uintptr
)

// Callback receives a buffer the pipeline has finished with. It runs on a
// thread owned by the native layer and must not block.
type Callback func(port Port, buf Buffer)

// PortType matches MMAL_PORT_TYPE_T.
type PortType uint32

const (
	PortTypeUnknown PortType = 0
	PortTypeControl PortType = 1
	PortTypeInput   PortType = 2
	PortTypeOutput  PortType = 3
	PortTypeClock   PortType = 4
)

// String returns a string representation of the port type.
func (t PortType) String() string {
	switch t {
	case PortTypeControl:
		return "control"
	case PortTypeInput:
		return "input"
	case PortTypeOutput:
		return "output"
	case PortTypeClock:
		return "clock"
	default:
		return "unknown"
	}
}

// ESType matches MMAL_ES_TYPE_T.
type ESType uint32

const (
	ESTypeUnknown    ESType = 0
	ESTypeControl    ESType = 1
	ESTypeAudio      ESType = 2
	ESTypeVideo      ESType = 3
	ESTypeSubpicture ESType = 4
)

// Rect matches MMAL_RECT_T.
type Rect struct {
	X, Y, Width, Height int32
}

// Rational matches MMAL_RATIONAL_T.
type Rational struct {
	Num, Den int32
}

// VideoFormat matches MMAL_VIDEO_FORMAT_T.
type VideoFormat struct {
	Width      uint32
	Height     uint32
	Crop       Rect
	FrameRate  Rational
	Par        Rational
	ColorSpace FourCC
}

// Format is the elementary stream format of a port (MMAL_ES_FORMAT_T plus the
// video member of its specific-format union).
type Format struct {
	Type            ESType
	Encoding        FourCC
	EncodingVariant FourCC
	Bitrate         uint32
	Flags           uint32
	Video           VideoFormat
}

// BufferConfig holds the buffer fields of MMAL_PORT_T.
type BufferConfig struct {
	NumMin          uint32
	SizeMin         uint32
	AlignmentMin    uint32
	NumRecommended  uint32
	SizeRecommended uint32
	Num             uint32
	Size            uint32
}

// Connection flags (MMAL_CONNECTION_FLAG_*).
const (
	ConnectionFlagTunnelling             uint32 = 0x1
	ConnectionFlagAllocationOnInput      uint32 = 0x2
	ConnectionFlagAllocationOnOutput     uint32 = 0x4
	ConnectionFlagKeepBufferRequirements uint32 = 0x8
	ConnectionFlagDirect                 uint32 = 0x10
)

// Backend is the opaque handle API of the pipeline. Functions that can be
// rejected return a Status; lookups that can fail return a zero handle.
type Backend interface {
	// Init runs the process-wide one-time driver setup.
	Init() error
	// RGBOrderFixed reports whether the firmware behind port has the
	// corrected RGB24/BGR24 ordering.
	RGBOrderFixed(port Port) bool

	ComponentCreate(name string) (Component, Status)
	ComponentAcquire(c Component)
	ComponentRelease(c Component) Status
	ComponentDestroy(c Component) Status
	ComponentEnable(c Component) Status
	ComponentDisable(c Component) Status
	ComponentIsEnabled(c Component) bool
	ComponentName(c Component) string
	ControlPort(c Component) Port
	InputCount(c Component) int
	OutputCount(c Component) int
	InputPort(c Component, n int) Port
	OutputPort(c Component, n int) Port

	PortName(p Port) string
	PortType(p Port) PortType
	PortFormat(p Port) Format
	PortSetFormat(p Port, f Format)
	PortFormatCommit(p Port) Status
	PortBufferConfig(p Port) BufferConfig
	PortSetBufferConfig(p Port, num, size uint32)
	PortEnable(p Port, cb Callback) Status
	PortDisable(p Port) Status
	PortIsEnabled(p Port) bool
	PortSetUserData(p Port, data uintptr)
	PortUserData(p Port) uintptr
	PortSendBuffer(p Port, b Buffer) Status
	// PortParameterSet and PortParameterGet take a full parameter record:
	// the 8-byte header (id, size) followed by the body.
	PortParameterSet(p Port, record []byte) Status
	PortParameterGet(p Port, record []byte) Status

	PortPoolCreate(p Port, num, size uint32) Pool
	PortPoolDestroy(p Port, pool Pool)
	PoolQueue(pool Pool) Queue

	QueueCreate() Queue
	QueueDestroy(q Queue)
	QueueGet(q Queue) Buffer
	QueuePut(q Queue, b Buffer)
	QueuePutBack(q Queue, b Buffer)
	QueueWait(q Queue) Buffer
	QueueTimedWait(q Queue, timeout time.Duration) Buffer
	QueueLength(q Queue) int

	BufferAcquire(b Buffer)
	BufferRelease(b Buffer)
	BufferLock(b Buffer) Status
	BufferUnlock(b Buffer)
	BufferFlags(b Buffer) uint32
	BufferPTS(b Buffer) int64
	// BufferPayload returns the window data+offset of length bytes. The
	// slice aliases native memory and is valid only while the buffer is locked.
	BufferPayload(b Buffer) []byte

	ConnectionCreate(out, in Port, flags uint32) (Connection, Status)
	ConnectionAcquire(c Connection)
	ConnectionRelease(c Connection) Status
	ConnectionDestroy(c Connection) Status
	ConnectionEnable(c Connection) Status
	ConnectionDisable(c Connection) Status
	ConnectionIsEnabled(c Connection) bool
}
