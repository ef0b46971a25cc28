// Package source defines the contract between capture drivers and the
// host media pipeline: drivers register themselves, the host creates
// sources from persisted settings, and running sources deliver timestamped
// PCM buffers into an Output.
package source

// SampleFormat identifies a PCM sample encoding
type SampleFormat string

const (
	FormatS16LE SampleFormat = "S16_LE"
	FormatS32LE SampleFormat = "S32_LE"
	FormatFloat SampleFormat = "FLOAT_LE"
)

// Bytes returns the per-sample width of the format, or 0 if unknown
func (f SampleFormat) Bytes() int {
	switch f {
	case FormatS16LE:
		return 2
	case FormatS32LE, FormatFloat:
		return 4
	}
	return 0
}

// Settings is the persisted per-source configuration. The capture core
// validates presence but does not interpret the selector beyond that.
type Settings struct {
	Device    string `json:"device_id" toml:"device_id" doc:"Capture device selector (default or hw:CARD,DEV)"`
	ForceMono bool   `json:"force_mono" toml:"force_mono" doc:"Capture a single channel instead of stereo"`
}

// Audio is one delivered buffer of planar PCM. Planes point into the
// producer's scratch buffer and are only valid for the duration of the
// OutputAudio call; consumers must copy what they keep.
type Audio struct {
	Planes    [][]byte // one plane per channel
	Frames    int
	Rate      int
	Channels  int
	Format    SampleFormat
	Timestamp uint64 // ns, monotonic; when the first frame hit the hardware
}

// Output is where a running source delivers its buffers. OutputAudio is
// synchronous and expected to return quickly; a rejected buffer is
// dropped by the producer, never retried.
type Output interface {
	OutputAudio(Audio) error
}

// Source is one running capture instance
type Source interface {
	// Update applies new settings, tearing down and rebuilding whatever
	// the change requires. The old configuration is fully stopped before
	// the new one starts.
	Update(Settings) error

	// Status reports the instance's current lifecycle state
	Status() Status

	// Close stops delivery and releases the device. The source must not
	// be used afterwards.
	Close() error
}

// Driver creates sources of one kind. Drivers register themselves with
// the package registry; hosts look them up by name.
type Driver interface {
	// Name is the unique driver identifier, e.g. "alsa_capture"
	Name() string

	// Label is the human-readable driver description
	Label() string

	// Defaults returns the settings a new source starts from
	Defaults() Settings

	// Properties describes the configurable fields, including the
	// currently available devices, for configuration UIs
	Properties() []Property

	// Create builds and activates a source that delivers into out.
	// Activation failures leave the returned source configured but
	// inactive; its Status carries the error.
	Create(settings Settings, out Output) (Source, error)
}

// Status describes a source's lifecycle state
type Status struct {
	State     string `json:"state" doc:"idle, running or error"`
	Rate      int    `json:"rate,omitempty" doc:"Negotiated sample rate"`
	Channels  int    `json:"channels,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Property describes one configurable field of a driver
type Property struct {
	Name    string           `json:"name"`
	Label   string           `json:"label"`
	Type    string           `json:"type" doc:"list or bool"`
	Options []PropertyOption `json:"options,omitempty"`
}

// PropertyOption is one selectable value of a list property
type PropertyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
