package ffi

import (
	"sync"

	"github.com/thesyncim/gommal/pkg/native"
)

// Global callback registry for mapping C port callbacks to Go callbacks.
// A single native trampoline serves every port because purego callbacks
// are a limited resource and cannot capture closure state.
var (
	portCallbacks   = make(map[native.Port]native.Callback)
	portCallbacksMu sync.RWMutex

	trampolineOnce sync.Once
	trampolineFn   uintptr
)

// trampoline returns the MMAL_PORT_BH_CB_T shared by all ports, or 0 when
// the platform has no native callbacks.
func trampoline() uintptr {
	trampolineOnce.Do(func() {
		trampolineFn = newPortCallback(portCallbackBridge)
	})
	return trampolineFn
}

func portCallbackBridge(p, b uintptr) {
	portCallbacksMu.RLock()
	cb, ok := portCallbacks[native.Port(p)]
	portCallbacksMu.RUnlock()

	if !ok {
		// Late completion after disable: give the header back.
		mmalBufferHeaderRelease(b)
		return
	}
	cb(native.Port(p), native.Buffer(b))
}

func registerPortCallback(p native.Port, cb native.Callback) {
	portCallbacksMu.Lock()
	portCallbacks[p] = cb
	portCallbacksMu.Unlock()
}

func unregisterPortCallback(p native.Port) {
	portCallbacksMu.Lock()
	delete(portCallbacks, p)
	portCallbacksMu.Unlock()
}
