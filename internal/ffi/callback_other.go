//go:build !darwin && !freebsd && !(linux && (amd64 || arm64))

package ffi

// No native callbacks here; PortEnable reports StatusNotImplemented.
func newPortCallback(func(p, b uintptr)) uintptr {
	return 0
}
