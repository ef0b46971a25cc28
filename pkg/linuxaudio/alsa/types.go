//go:build linux

package alsa

// Device represents an ALSA capture device with its capabilities.
type Device struct {
	CardNumber   int    `json:"card_number"`
	CardID       string `json:"card_id"`
	CardName     string `json:"card_name"`
	DeviceNumber int    `json:"device_number"`
	DeviceName   string `json:"device_name"`

	// ALSADevice is the hw:X,Y selector usable for capture
	ALSADevice string `json:"alsa_device"`

	// Capture capabilities discovered via hw_params refinement
	SupportedRates   []int    `json:"supported_rates,omitempty"`
	MinChannels      int      `json:"min_channels,omitempty"`
	MaxChannels      int      `json:"max_channels,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
	MinBufferTime    int      `json:"min_buffer_time,omitempty"` // microseconds
	MaxBufferTime    int      `json:"max_buffer_time,omitempty"` // microseconds
	MinPeriodTime    int      `json:"min_period_time,omitempty"` // microseconds
	MaxPeriodTime    int      `json:"max_period_time,omitempty"` // microseconds
}

// FormatALSADevice returns the hw:X,Y device selector string
func FormatALSADevice(card, device int) string {
	return "hw:" + itoa(card) + "," + itoa(device)
}

// itoa converts small non-negative integers without fmt
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Stream directions
const (
	StreamPlayback = 0
	StreamCapture  = 1
)

// Access modes (SNDRV_PCM_ACCESS_*)
const (
	AccessMMapInterleaved    = 0
	AccessMMapNonInterleaved = 1
	AccessMMapComplex        = 2
	AccessRWInterleaved      = 3
	AccessRWNonInterleaved   = 4
)

// Sample formats (SNDRV_PCM_FORMAT_*)
const (
	FormatS8      = 0
	FormatU8      = 1
	FormatS16LE   = 2
	FormatS16BE   = 3
	FormatU16LE   = 4
	FormatU16BE   = 5
	FormatS24LE   = 6
	FormatS24BE   = 7
	FormatU24LE   = 8
	FormatU24BE   = 9
	FormatS32LE   = 10
	FormatS32BE   = 11
	FormatU32LE   = 12
	FormatU32BE   = 13
	FormatFloatLE = 14
	FormatFloatBE = 15
)

// Stream states (SNDRV_PCM_STATE_*)
const (
	StateOpen         = 0
	StateSetup        = 1
	StatePrepared     = 2
	StateRunning      = 3
	StateXRun         = 4
	StateDraining     = 5
	StatePaused       = 6
	StateSuspended    = 7
	StateDisconnected = 8
)

// FormatName returns a human-readable name for a format constant
func FormatName(format int) string {
	names := map[int]string{
		FormatS8:      "S8",
		FormatU8:      "U8",
		FormatS16LE:   "S16_LE",
		FormatS16BE:   "S16_BE",
		FormatU16LE:   "U16_LE",
		FormatU16BE:   "U16_BE",
		FormatS24LE:   "S24_LE",
		FormatS24BE:   "S24_BE",
		FormatU24LE:   "U24_LE",
		FormatU24BE:   "U24_BE",
		FormatS32LE:   "S32_LE",
		FormatS32BE:   "S32_BE",
		FormatU32LE:   "U32_LE",
		FormatU32BE:   "U32_BE",
		FormatFloatLE: "FLOAT_LE",
		FormatFloatBE: "FLOAT_BE",
	}
	if name, ok := names[format]; ok {
		return name
	}
	return "UNKNOWN"
}

// FormatBytes returns the per-sample byte width of a format, or 0 if unknown
func FormatBytes(format int) int {
	switch format {
	case FormatS8, FormatU8:
		return 1
	case FormatS16LE, FormatS16BE, FormatU16LE, FormatU16BE:
		return 2
	case FormatS24LE, FormatS24BE, FormatU24LE, FormatU24BE,
		FormatS32LE, FormatS32BE, FormatU32LE, FormatU32BE,
		FormatFloatLE, FormatFloatBE:
		return 4
	}
	return 0
}

// StateName returns a human-readable name for a stream state constant
func StateName(state int) string {
	switch state {
	case StateOpen:
		return "OPEN"
	case StateSetup:
		return "SETUP"
	case StatePrepared:
		return "PREPARED"
	case StateRunning:
		return "RUNNING"
	case StateXRun:
		return "XRUN"
	case StateDraining:
		return "DRAINING"
	case StatePaused:
		return "PAUSED"
	case StateSuspended:
		return "SUSPENDED"
	case StateDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// CommonSampleRates to test during capability discovery
var CommonSampleRates = []int{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000}

// CommonFormats to test during capability discovery
var CommonFormats = []int{FormatS16LE, FormatS24LE, FormatS32LE, FormatFloatLE, FormatU8}
