//go:build linux

package devices

import (
	"fmt"

	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

type linuxDetector struct{}

func newPlatformDetector() Detector {
	return &linuxDetector{}
}

// ListDevices enumerates ALSA capture devices through /dev/snd
func (d *linuxDetector) ListDevices() ([]AudioDevice, error) {
	raw, err := alsa.ListDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]AudioDevice, 0, len(raw))
	for _, dev := range raw {
		devices = append(devices, AudioDevice{
			Selector: dev.ALSADevice,
			Label:    fmt.Sprintf("%s (%s, %s)", dev.ALSADevice, dev.CardName, dev.DeviceName),
			Card:     dev.CardNumber,
			Device:   dev.DeviceNumber,
			Capabilities: Capabilities{
				Rates:       dev.SupportedRates,
				MinChannels: dev.MinChannels,
				MaxChannels: dev.MaxChannels,
				Formats:     dev.SupportedFormats,
			},
		})
	}
	return devices, nil
}
