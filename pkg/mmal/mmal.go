// Package mmal wraps the MMAL camera/encoder pipeline.
//
// It provides reference-counted component and connection handles, typed
// port views, a pool-fed output port with a recycle queue, a bridge from
// native completion callbacks to Go callers (Sink), and typed parameter
// marshaling. All native access goes through a native.Backend, either the
// hardware binding returned by Init or an emulator.
//
// Basic usage:
//
//	b, err := mmal.Init()
//	cam, err := camera.Create(b)
//	defer cam.Release()
//	err = camera.Control.WriteMulti(cam, camera.CameraNum(0), camera.Saturation(10))
package mmal

import (
	"sync"

	"github.com/thesyncim/gommal/internal/ffi"
	"github.com/thesyncim/gommal/pkg/native"
)

var (
	initOnce    sync.Once
	initBackend *ffi.Backend
	initErr     error
)

// Init loads the native libraries and runs the process-wide driver setup
// exactly once. Every later call returns the same backend and error.
// Nothing checks that Init ran before a component is created.
func Init() (native.Backend, error) {
	initOnce.Do(func() {
		b, err := ffi.NewBackend()
		if err != nil {
			initErr = err
			return
		}
		if err := b.Init(); err != nil {
			initErr = err
			return
		}
		initBackend = b
	})
	if initErr != nil {
		return nil, initErr
	}
	return initBackend, nil
}
