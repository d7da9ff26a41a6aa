//go:build !unix

package emulator

func allocPayload(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func freePayload([]byte) error { return nil }
