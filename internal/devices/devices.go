// Package devices enumerates ALSA capture endpoints and resolves the
// selector strings used in source settings.
package devices

import "fmt"

const (
	// DefaultSelector is the synthetic entry that resolves to the first
	// capture device present at resolution time.
	DefaultSelector = "default"

	defaultLabel = "Default Audio Device"
)

// Capabilities summarizes what a capture endpoint can negotiate
type Capabilities struct {
	Rates       []int    `json:"rates,omitempty"`
	MinChannels int      `json:"min_channels,omitempty"`
	MaxChannels int      `json:"max_channels,omitempty"`
	Formats     []string `json:"formats,omitempty"`
}

// AudioDevice is one selectable capture endpoint
type AudioDevice struct {
	Selector     string       `json:"selector"`
	Label        string       `json:"label"`
	Card         int          `json:"card"`
	Device       int          `json:"device"`
	Capabilities Capabilities `json:"capabilities"`
}

// Detector enumerates the capture devices present on this host
type Detector interface {
	ListDevices() ([]AudioDevice, error)
}

// NewDetector creates a platform-specific capture device detector
func NewDetector() Detector {
	return newPlatformDetector()
}

// Selectable returns the entries a user can pick from: the synthetic
// default first, then every physical device in enumeration order
func Selectable(devs []AudioDevice) []AudioDevice {
	out := make([]AudioDevice, 0, len(devs)+1)
	out = append(out, AudioDevice{
		Selector: DefaultSelector,
		Label:    defaultLabel,
		Card:     -1,
		Device:   -1,
	})
	return append(out, devs...)
}

// Resolve maps a selector to a concrete card and device number. The
// default selector resolves to the first enumerated capture device;
// anything else must be an hw:CARD,DEV pair. Whether the endpoint can
// actually be opened is only known at open time.
func Resolve(detector Detector, selector string) (card, device int, err error) {
	if selector == "" || selector == DefaultSelector {
		devs, err := detector.ListDevices()
		if err != nil {
			return 0, 0, fmt.Errorf("resolve %q: %w", selector, err)
		}
		if len(devs) == 0 {
			return 0, 0, fmt.Errorf("resolve %q: no capture devices present", selector)
		}
		return devs[0].Card, devs[0].Device, nil
	}

	n, err := fmt.Sscanf(selector, "hw:%d,%d", &card, &device)
	if err != nil || n != 2 || card < 0 || device < 0 {
		return 0, 0, fmt.Errorf("unrecognized device selector %q", selector)
	}
	return card, device, nil
}
