//go:build darwin || freebsd || (linux && (amd64 || arm64))

package ffi

import "github.com/ebitengine/purego"

func newPortCallback(fn func(p, b uintptr)) uintptr {
	return purego.NewCallback(fn)
}
