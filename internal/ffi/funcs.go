package ffi

// Native entry points. Pointer arguments are raw uintptrs into memory
// owned by the libraries; statuses are MMAL_STATUS_T.
var (
	bcmHostInit func()
	vcosInit    func() int32
	mmalVCInit  func() uint32

	mmalComponentCreate  func(name string, out *uintptr) uint32
	mmalComponentAcquire func(c uintptr)
	mmalComponentRelease func(c uintptr) uint32
	mmalComponentDestroy func(c uintptr) uint32
	mmalComponentEnable  func(c uintptr) uint32
	mmalComponentDisable func(c uintptr) uint32

	mmalPortFormatCommit func(p uintptr) uint32
	mmalPortEnable       func(p uintptr, cb uintptr) uint32
	mmalPortDisable      func(p uintptr) uint32
	mmalPortSendBuffer   func(p uintptr, b uintptr) uint32
	mmalPortParameterSet func(p uintptr, record uintptr) uint32
	mmalPortParameterGet func(p uintptr, record uintptr) uint32

	mmalPortPoolCreate  func(p uintptr, headers, payloadSize uint32) uintptr
	mmalPortPoolDestroy func(p uintptr, pool uintptr)

	mmalQueueCreate    func() uintptr
	mmalQueueDestroy   func(q uintptr)
	mmalQueueGet       func(q uintptr) uintptr
	mmalQueuePut       func(q uintptr, b uintptr)
	mmalQueuePutBack   func(q uintptr, b uintptr)
	mmalQueueWait      func(q uintptr) uintptr
	mmalQueueTimedWait func(q uintptr, timeoutMs uint32) uintptr
	mmalQueueLength    func(q uintptr) uint32

	mmalBufferHeaderAcquire   func(b uintptr)
	mmalBufferHeaderRelease   func(b uintptr)
	mmalBufferHeaderMemLock   func(b uintptr) uint32
	mmalBufferHeaderMemUnlock func(b uintptr)

	mmalConnectionCreate  func(out *uintptr, src, dst uintptr, flags uint32) uint32
	mmalConnectionAcquire func(c uintptr)
	mmalConnectionRelease func(c uintptr) uint32
	mmalConnectionDestroy func(c uintptr) uint32
	mmalConnectionEnable  func(c uintptr) uint32
	mmalConnectionDisable func(c uintptr) uint32

	mmalUtilRGBOrderFixed func(p uintptr) int32
)

func symbols() []symbol {
	return []symbol{
		{&bcmHostInit, "libbcm_host.so", "bcm_host_init"},
		{&vcosInit, "libvcos.so", "vcos_init"},
		{&mmalVCInit, "libmmal_vc_client.so", "mmal_vc_init"},

		{&mmalComponentCreate, "libmmal_core.so", "mmal_component_create"},
		{&mmalComponentAcquire, "libmmal_core.so", "mmal_component_acquire"},
		{&mmalComponentRelease, "libmmal_core.so", "mmal_component_release"},
		{&mmalComponentDestroy, "libmmal_core.so", "mmal_component_destroy"},
		{&mmalComponentEnable, "libmmal_core.so", "mmal_component_enable"},
		{&mmalComponentDisable, "libmmal_core.so", "mmal_component_disable"},

		{&mmalPortFormatCommit, "libmmal_core.so", "mmal_port_format_commit"},
		{&mmalPortEnable, "libmmal_core.so", "mmal_port_enable"},
		{&mmalPortDisable, "libmmal_core.so", "mmal_port_disable"},
		{&mmalPortSendBuffer, "libmmal_core.so", "mmal_port_send_buffer"},
		{&mmalPortParameterSet, "libmmal_core.so", "mmal_port_parameter_set"},
		{&mmalPortParameterGet, "libmmal_core.so", "mmal_port_parameter_get"},

		{&mmalPortPoolCreate, "libmmal_util.so", "mmal_port_pool_create"},
		{&mmalPortPoolDestroy, "libmmal_util.so", "mmal_port_pool_destroy"},

		{&mmalQueueCreate, "libmmal_core.so", "mmal_queue_create"},
		{&mmalQueueDestroy, "libmmal_core.so", "mmal_queue_destroy"},
		{&mmalQueueGet, "libmmal_core.so", "mmal_queue_get"},
		{&mmalQueuePut, "libmmal_core.so", "mmal_queue_put"},
		{&mmalQueuePutBack, "libmmal_core.so", "mmal_queue_put_back"},
		{&mmalQueueWait, "libmmal_core.so", "mmal_queue_wait"},
		{&mmalQueueTimedWait, "libmmal_core.so", "mmal_queue_timedwait"},
		{&mmalQueueLength, "libmmal_core.so", "mmal_queue_length"},

		{&mmalBufferHeaderAcquire, "libmmal_core.so", "mmal_buffer_header_acquire"},
		{&mmalBufferHeaderRelease, "libmmal_core.so", "mmal_buffer_header_release"},
		{&mmalBufferHeaderMemLock, "libmmal_core.so", "mmal_buffer_header_mem_lock"},
		{&mmalBufferHeaderMemUnlock, "libmmal_core.so", "mmal_buffer_header_mem_unlock"},

		{&mmalConnectionCreate, "libmmal_util.so", "mmal_connection_create"},
		{&mmalConnectionAcquire, "libmmal_util.so", "mmal_connection_acquire"},
		{&mmalConnectionRelease, "libmmal_util.so", "mmal_connection_release"},
		{&mmalConnectionDestroy, "libmmal_util.so", "mmal_connection_destroy"},
		{&mmalConnectionEnable, "libmmal_util.so", "mmal_connection_enable"},
		{&mmalConnectionDisable, "libmmal_util.so", "mmal_connection_disable"},

		{&mmalUtilRGBOrderFixed, "libmmal_util.so", "mmal_util_rgb_order_fixed"},
	}
}
