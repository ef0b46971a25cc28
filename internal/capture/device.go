// Package capture implements the ALSA capture engine: hardware parameter
// negotiation, the dedicated capture loop with fault recovery, and the
// session lifecycle that ties a device handle to its loop goroutine.
package capture

import (
	"errors"
	"time"

	"github.com/smazurov/audionode/internal/source"
)

// ErrAgain is returned by Device.Resume and Device.ReadNonInterleaved when
// the operation would block and should simply be retried.
var ErrAgain = errors.New("device not ready, try again")

// DeviceState is the device-reported stream state the fault recovery
// branches on
type DeviceState int

const (
	DeviceUnknown DeviceState = iota
	DevicePrepared
	DeviceRunning
	DeviceXRun
	DeviceSuspended
	DeviceDisconnected
)

func (s DeviceState) String() string {
	switch s {
	case DevicePrepared:
		return "prepared"
	case DeviceRunning:
		return "running"
	case DeviceXRun:
		return "xrun"
	case DeviceSuspended:
		return "suspended"
	case DeviceDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// HwParams is one negotiation pass over a device's hardware configuration
// space. Setters narrow the space; a request the hardware cannot satisfy
// at all returns an error, while the *Near setters report the closest
// supported value instead of failing.
type HwParams interface {
	SetAccessNonInterleaved() error
	SetFormat(format source.SampleFormat) error
	SetChannels(channels int) error
	SetRateNear(rate int) (int, error)

	// BufferTimeMax and PeriodTimeMin read the bounds of the current
	// space, in microseconds
	BufferTimeMax() int
	PeriodTimeMin() int

	SetBufferTimeNear(us int) (int, error)
	SetPeriodTimeNear(us int) (int, error)

	// PeriodSize and BufferSize read back the achieved sizes in frames
	PeriodSize() int
	BufferSize() int
}

// Device is an open capture stream. The engine drives it from a single
// goroutine; implementations need not be safe for concurrent use.
type Device interface {
	// HwParamsAny fetches the device's full capability space
	HwParamsAny() (HwParams, error)

	// Apply commits a negotiated space and leaves the stream prepared
	Apply(HwParams) error

	// Start triggers capture on a prepared stream
	Start() error

	// Prepare resets the ring buffer after a fault and re-arms capture
	Prepare() error

	// Resume wakes a suspended stream. ErrAgain means the hardware is
	// still waking up and the call should be retried after a pause.
	Resume() error

	// Wait blocks until at least one period is readable or the timeout
	// elapses. False with a nil error means timeout; both are retryable.
	Wait(timeout time.Duration) (bool, error)

	// ReadNonInterleaved reads up to frames frames into one plane per
	// channel, returning how many were actually read. ErrAgain means
	// nothing was available.
	ReadNonInterleaved(planes [][]byte, frames int) (int, error)

	// Delay reports how many frames the newest readable frame lags the
	// microphone by
	Delay() (int, error)

	// State reports the device's current stream state
	State() DeviceState

	Close() error
}

// Opener opens the capture device a selector resolves to
type Opener func(selector string) (Device, error)
