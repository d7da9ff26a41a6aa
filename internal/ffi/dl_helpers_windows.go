//go:build windows

package ffi

// There is no VideoCore userland for Windows.
const (
	RTLD_NOW    = 0
	RTLD_GLOBAL = 0
)

func dlopenLibrary(string, int) (uintptr, error) { return 0, ErrUnsupportedPlatform }

func dlsymLibrary(uintptr, string) (uintptr, error) { return 0, ErrUnsupportedPlatform }

func dlcloseLibrary(uintptr) error { return nil }
