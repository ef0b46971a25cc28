//go:build linux

package alsa

import (
	"syscall"
	"unsafe"
)

// ioctl performs a raw ioctl syscall on the given file descriptor.
// arg may be nil for commands that carry no payload.
func ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// cstr converts a NUL-terminated byte array to a Go string
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
