package ffi

import (
	"unsafe"

	"github.com/thesyncim/gommal/pkg/native"
)

// Go mirrors of the public MMAL structs. Pointers are uintptr so the
// layout follows the platform pointer size, matching the C ABI on the
// 64-bit targets purego supports. Only the fields Backend touches are
// read or written.

// mmalComponent mirrors MMAL_COMPONENT_T.
type mmalComponent struct {
	priv      uintptr
	userdata  uintptr
	name      uintptr
	isEnabled uint32
	control   uintptr
	inputNum  uint32
	input     uintptr
	outputNum uint32
	output    uintptr
	clockNum  uint32
	clock     uintptr
	port      uintptr
	portNum   uint32
	id        uint32
}

// mmalPort mirrors MMAL_PORT_T.
type mmalPort struct {
	priv                  uintptr
	name                  uintptr
	typ                   uint32
	index                 uint16
	indexAll              uint16
	isEnabled             uint32
	format                uintptr
	bufferNumMin          uint32
	bufferSizeMin         uint32
	bufferAlignmentMin    uint32
	bufferNumRecommended  uint32
	bufferSizeRecommended uint32
	bufferNum             uint32
	bufferSize            uint32
	component             uintptr
	userdata              uintptr
	capabilities          uint32
}

// mmalESFormat mirrors MMAL_ES_FORMAT_T. es points at a
// MMAL_ES_SPECIFIC_FORMAT_T union whose video member has the layout of
// native.VideoFormat.
type mmalESFormat struct {
	typ             uint32
	encoding        uint32
	encodingVariant uint32
	es              uintptr
	bitrate         uint32
	flags           uint32
	extradataSize   uint32
	extradata       uintptr
}

// mmalBufferHeader mirrors MMAL_BUFFER_HEADER_T.
type mmalBufferHeader struct {
	next      uintptr
	priv      uintptr
	cmd       uint32
	data      uintptr
	allocSize uint32
	length    uint32
	offset    uint32
	flags     uint32
	pts       int64
	dts       int64
	typ       uintptr
	userData  uintptr
}

// mmalPool mirrors MMAL_POOL_T.
type mmalPool struct {
	queue      uintptr
	headersNum uint32
	header     uintptr
}

// mmalConnection mirrors MMAL_CONNECTION_T.
type mmalConnection struct {
	userData    uintptr
	callback    uintptr
	isEnabled   uint32
	flags       uint32
	in          uintptr
	out         uintptr
	pool        uintptr
	queue       uintptr
	name        uintptr
	timeSetup   int64
	timeEnable  int64
	timeDisable int64
}

// The helpers below reinterpret handles returned by the libraries. Every
// handle stays valid until the matching destroy call.

func component(c native.Component) *mmalComponent {
	return (*mmalComponent)(unsafe.Pointer(uintptr(c)))
}

func port(p native.Port) *mmalPort {
	return (*mmalPort)(unsafe.Pointer(uintptr(p)))
}

func header(b native.Buffer) *mmalBufferHeader {
	return (*mmalBufferHeader)(unsafe.Pointer(uintptr(b)))
}

func pool(p native.Pool) *mmalPool {
	return (*mmalPool)(unsafe.Pointer(uintptr(p)))
}

func connection(c native.Connection) *mmalConnection {
	return (*mmalConnection)(unsafe.Pointer(uintptr(c)))
}

func esFormat(p *mmalPort) *mmalESFormat {
	return (*mmalESFormat)(unsafe.Pointer(p.format))
}

func videoFormat(f *mmalESFormat) *native.VideoFormat {
	return (*native.VideoFormat)(unsafe.Pointer(f.es))
}

// portAt returns element n of a MMAL_PORT_T ** array.
func portAt(array uintptr, n int) native.Port {
	ptrs := unsafe.Slice((*uintptr)(unsafe.Pointer(array)), n+1)
	return native.Port(ptrs[n])
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
