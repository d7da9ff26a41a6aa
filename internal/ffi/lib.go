// Package ffi binds the VideoCore MMAL libraries with purego.
//
// The libraries are opened with dlopen at runtime, so the package builds
// without cgo and without the firmware headers. Backend implements
// native.Backend on top of the loaded symbols.
package ffi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/purego"

	"github.com/thesyncim/gommal/internal/logging"
)

var (
	// ErrLibraryNotLoaded is returned when the MMAL libraries haven't been loaded.
	ErrLibraryNotLoaded = errors.New("mmal libraries not loaded")

	// ErrLibraryNotFound is returned when a MMAL library cannot be found.
	ErrLibraryNotFound = errors.New("mmal library not found")

	// ErrUnsupportedPlatform is returned where dlopen or native callbacks
	// are unavailable.
	ErrUnsupportedPlatform = errors.New("mmal is not supported on this platform")
)

// LibDirEnv overrides the directory searched first for the libraries.
const LibDirEnv = "GOMMAL_LIB_DIR"

// Libraries in load order. Each is opened RTLD_GLOBAL so the later ones
// resolve against the earlier ones.
var libraryNames = []string{
	"libbcm_host.so",
	"libvcos.so",
	"libmmal_core.so",
	"libmmal_util.so",
	"libmmal_vc_client.so",
	"libmmal.so",
}

var (
	libHandles []uintptr
	libLoaded  atomic.Bool
	libMu      sync.Mutex
)

// LoadLibrary opens the MMAL libraries and binds every symbol Backend uses.
// It searches in the following locations:
// 1. The directory named by GOMMAL_LIB_DIR
// 2. /opt/vc/lib (Raspberry Pi OS firmware userland)
// 3. System library paths
func LoadLibrary() error {
	libMu.Lock()
	defer libMu.Unlock()

	if libLoaded.Load() {
		return nil
	}

	handles := make(map[string]uintptr, len(libraryNames))
	var opened []uintptr
	for _, name := range libraryNames {
		h, err := openLibrary(name)
		if err != nil {
			closeHandles(opened)
			return err
		}
		handles[name] = h
		opened = append(opened, h)
	}

	if err := registerFunctions(handles); err != nil {
		closeHandles(opened)
		return err
	}

	libHandles = opened
	libLoaded.Store(true)
	return nil
}

// IsLoaded returns true if the MMAL libraries are loaded.
func IsLoaded() bool {
	return libLoaded.Load()
}

// Close unloads the libraries. Components created before Close must have
// been destroyed.
func Close() error {
	libMu.Lock()
	defer libMu.Unlock()

	if !libLoaded.Load() {
		return nil
	}
	var errs []error
	for i := len(libHandles) - 1; i >= 0; i-- {
		errs = append(errs, dlcloseLibrary(libHandles[i]))
	}
	libLoaded.Store(false)
	libHandles = nil
	return errors.Join(errs...)
}

func openLibrary(name string) (uintptr, error) {
	var lastErr error
	for _, path := range libraryPaths(name) {
		if filepath.IsAbs(path) {
			if _, err := os.Stat(path); err != nil {
				continue
			}
		}
		h, err := dlopenLibrary(path, RTLD_NOW|RTLD_GLOBAL)
		if err == nil {
			logging.Logger().WithField("path", path).Debug("loaded mmal library")
			return h, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrLibraryNotFound, name, lastErr)
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// libraryPaths lists the candidates for one library, best first. A bare
// name at the end lets the dynamic loader search its own paths.
func libraryPaths(name string) []string {
	var paths []string
	if dir := os.Getenv(LibDirEnv); dir != "" {
		paths = append(paths, filepath.Join(dir, name))
	}
	paths = append(paths,
		filepath.Join("/opt/vc/lib", name),
		filepath.Join("/usr/lib/arm-linux-gnueabihf", name),
		filepath.Join("/usr/lib/aarch64-linux-gnu", name),
		name,
		name+".0",
	)
	return paths
}

func closeHandles(handles []uintptr) {
	for i := len(handles) - 1; i >= 0; i-- {
		_ = dlcloseLibrary(handles[i])
	}
}

type symbol struct {
	fn   any
	lib  string
	name string
}

// registerFunctions binds every entry of the symbol table. A missing
// symbol is reported instead of panicking the way RegisterLibFunc would.
func registerFunctions(handles map[string]uintptr) error {
	for _, s := range symbols() {
		addr, err := dlsymLibrary(handles[s.lib], s.name)
		if err != nil || addr == 0 {
			return fmt.Errorf("%w: symbol %s in %s", ErrLibraryNotFound, s.name, s.lib)
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return nil
}
