package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/audionode/internal/devices"
	"github.com/smazurov/audionode/internal/source"
)

// DriverName is how the host pipeline refers to this input kind
const DriverName = "alsa_capture"

// Driver creates ALSA capture sources
type Driver struct {
	detector devices.Detector
	open     Opener
	log      *slog.Logger
}

// NewDriver wires the device detector and platform opener into a driver
// ready for registration
func NewDriver(detector devices.Detector, open Opener, logger *slog.Logger) *Driver {
	return &Driver{detector: detector, open: open, log: logger}
}

func (d *Driver) Name() string {
	return DriverName
}

func (d *Driver) Label() string {
	return "ALSA Capture Input"
}

func (d *Driver) Defaults() source.Settings {
	return source.Settings{Device: devices.DefaultSelector, ForceMono: false}
}

// Properties lists the selectable capture devices and the mono toggle.
// Enumeration failures are non-fatal: the synthetic default entry is
// always present.
func (d *Driver) Properties() []source.Property {
	devs, err := d.detector.ListDevices()
	if err != nil {
		d.log.Warn("Device enumeration failed", "error", err)
	}

	entries := devices.Selectable(devs)
	options := make([]source.PropertyOption, 0, len(entries))
	for _, e := range entries {
		options = append(options, source.PropertyOption{Value: e.Selector, Label: e.Label})
	}

	return []source.Property{
		{Name: "device_id", Label: "Device", Type: "list", Options: options},
		{Name: "force_mono", Label: "Force mono capture", Type: "bool"},
	}
}

// Create builds a source and tries to activate it. Activation failure is
// not fatal: the source comes back configured but inactive with the error
// recorded on its status, so a later settings update can bring it up.
func (d *Driver) Create(settings source.Settings, out source.Output) (source.Source, error) {
	if out == nil {
		return nil, fmt.Errorf("capture source needs an output")
	}
	src := &captureSource{drv: d, out: out, log: d.log}
	if err := src.Update(settings); err != nil {
		d.log.Warn("Source created inactive", "device", settings.Device, "error", err)
	}
	return src, nil
}

// captureSource is one configured input backed by at most one live session
type captureSource struct {
	drv *Driver
	out source.Output
	log *slog.Logger

	mu       sync.Mutex
	settings source.Settings
	session  *Session
	lastErr  string
	closed   bool
}

// Update applies settings by fully stopping any existing session before
// starting a new one; old and new sessions never coexist on a device.
func (s *captureSource) Update(settings source.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("source already closed")
	}

	if s.session != nil {
		s.session.Stop()
		s.session = nil
	}
	s.settings = settings

	channels := 2
	if settings.ForceMono {
		channels = 1
	}

	sess, err := Start(Config{
		Selector: settings.Device,
		Channels: channels,
		Open:     s.drv.open,
		Output:   s.out,
		Logger:   s.log,
	})
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.session = sess
	s.lastErr = ""
	return nil
}

// Status reports the source's lifecycle state. A session whose loop has
// stopped on its own hit an unrecoverable fault and shows as error.
func (s *captureSource) Status() source.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := source.Status{State: "idle", LastError: s.lastErr}
	if s.session == nil {
		if s.lastErr != "" {
			st.State = "error"
		}
		return st
	}

	st.Rate = s.session.Hw.Rate
	st.Channels = s.session.Hw.Channels
	if s.session.State() == StateStopped {
		st.State = "error"
		if st.LastError == "" {
			st.LastError = "capture loop stopped on an unrecoverable device fault"
		}
	} else {
		st.State = "running"
	}
	return st
}

// Snapshot returns the live session's negotiated parameters, counters and
// loop state; ok is false when no session is running
func (s *captureSource) Snapshot() (hw HwConfig, stats Stats, state State, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return HwConfig{}, Stats{}, StateIdle, false
	}
	return s.session.Hw, s.session.Stats(), s.session.State(), true
}

// Close stops the session and makes the source permanently inert
func (s *captureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.session != nil {
		s.session.Stop()
		s.session = nil
	}
	return nil
}
