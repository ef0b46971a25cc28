//go:build !linux

package capture

import (
	"fmt"

	"github.com/smazurov/audionode/internal/devices"
)

// OpenDevice returns an Opener that always fails: PCM capture needs the
// Linux sound interface
func OpenDevice(detector devices.Detector) Opener {
	return func(selector string) (Device, error) {
		return nil, fmt.Errorf("audio capture not supported on this platform")
	}
}
