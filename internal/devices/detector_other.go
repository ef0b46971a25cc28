//go:build !linux

package devices

import "fmt"

type stubDetector struct{}

func newPlatformDetector() Detector {
	return &stubDetector{}
}

// ListDevices returns an error on unsupported platforms.
func (d *stubDetector) ListDevices() ([]AudioDevice, error) {
	return nil, fmt.Errorf("audio device enumeration not supported on this platform")
}
