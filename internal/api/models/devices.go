package models

// AudioDevice represents a capture endpoint with its capabilities
type AudioDevice struct {
	// Basic info
	Selector string `json:"selector" example:"hw:1,0" doc:"Device selector used in source settings"`
	Label    string `json:"label" example:"USB Audio CODEC" doc:"Human-readable device name"`
	Card     int    `json:"card" example:"1" doc:"Sound card index"`
	Device   int    `json:"device" example:"0" doc:"Device index on card"`

	// Capabilities (from hardware parameter probing)
	SupportedRates   []int    `json:"supported_rates,omitempty" example:"[44100,48000,96000]" doc:"Supported sample rates in Hz"`
	MinChannels      int      `json:"min_channels,omitempty" example:"1" doc:"Minimum number of channels"`
	MaxChannels      int      `json:"max_channels,omitempty" example:"2" doc:"Maximum number of channels"`
	SupportedFormats []string `json:"supported_formats,omitempty" example:"[\"S16_LE\",\"S32_LE\"]" doc:"Supported PCM formats"`
}

// AudioDevicesData represents the response data for device enumeration
type AudioDevicesData struct {
	Devices []AudioDevice `json:"devices" doc:"List of available capture devices"`
	Count   int           `json:"count" example:"2" doc:"Number of devices found"`
}

// AudioDevicesResponse represents the HTTP response for device enumeration
type AudioDevicesResponse struct {
	Body AudioDevicesData
}
