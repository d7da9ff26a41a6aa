// Package testutil provides shared test utilities for gommal tests.
package testutil

import (
	"os"
	"testing"

	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/emulator"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// NewEmulator returns an emulator that is closed when the test ends.
func NewEmulator(tb testing.TB) *emulator.Emulator {
	tb.Helper()
	e := emulator.New(emulator.Config{})
	tb.Cleanup(e.Close)
	return e
}

// RequireHardware skips the test unless GOMMAL_HARDWARE=1 and the native
// libraries initialise.
func RequireHardware(tb testing.TB) native.Backend {
	tb.Helper()
	if os.Getenv("GOMMAL_HARDWARE") != "1" {
		tb.Skip("set GOMMAL_HARDWARE=1 to run against the VideoCore")
	}
	b, err := mmal.Init()
	if err != nil {
		tb.Fatalf("native libraries required: %v", err)
	}
	return b
}

// SmallVideo is a raw I420 video preset small enough for fast tests.
func SmallVideo(buffers uint32) camera.PortConfig {
	return camera.PortConfig{
		Encoding:  native.EncodingI420,
		Width:     64,
		Height:    48,
		FrameRate: native.Rational{Num: 30, Den: 1},
		Buffers:   mmal.BufferPolicy{Num: buffers},
	}
}

// VideoSink creates a camera, configures its video port with SmallVideo
// and returns a sink on it. Everything is released at test end.
func VideoSink(tb testing.TB, b native.Backend, buffers uint32) (*camera.Component, *mmal.Sink[camera.Entity, camera.VideoPort]) {
	tb.Helper()
	cam, err := camera.Create(b)
	if err != nil {
		tb.Fatalf("create camera: %v", err)
	}
	tb.Cleanup(cam.Release)
	if err := camera.Video.Configure(cam, SmallVideo(buffers)); err != nil {
		tb.Fatalf("configure video port: %v", err)
	}
	sink, err := mmal.NewSink(camera.Video, cam)
	if err != nil {
		tb.Fatalf("create sink: %v", err)
	}
	tb.Cleanup(sink.Close)
	return cam, sink
}
