//go:build unix

package emulator

import (
	"golang.org/x/sys/unix"
)

// allocPayload maps anonymous memory outside the Go heap, as the native
// pools hand out memory the collector does not own.
func allocPayload(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func freePayload(mem []byte) error {
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}
