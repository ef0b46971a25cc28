//go:build linux

package capture

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/smazurov/audionode/internal/devices"
	"github.com/smazurov/audionode/internal/source"
	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

// OpenDevice returns an Opener that resolves selectors against the
// detector's device list and opens the matching ALSA capture stream
func OpenDevice(detector devices.Detector) Opener {
	return func(selector string) (Device, error) {
		card, device, err := devices.Resolve(detector, selector)
		if err != nil {
			return nil, err
		}
		pcm, err := alsa.OpenCapture(card, device)
		if err != nil {
			return nil, err
		}
		return &alsaDevice{pcm: pcm}, nil
	}
}

// alsaDevice adapts a kernel PCM handle to the engine's Device contract
type alsaDevice struct {
	pcm *alsa.PCM
}

func (d *alsaDevice) HwParamsAny() (HwParams, error) {
	hw, err := d.pcm.HwParamsAny()
	if err != nil {
		return nil, err
	}
	return &alsaParams{hw: hw}, nil
}

func (d *alsaDevice) Apply(hw HwParams) error {
	p, ok := hw.(*alsaParams)
	if !ok {
		return fmt.Errorf("apply %s: foreign hardware params %T", d.pcm.Path(), hw)
	}
	return d.pcm.Apply(p.hw)
}

func (d *alsaDevice) Start() error { return d.pcm.Start() }

// Prepare resets the ring buffer and immediately re-arms capture, so a
// recovered stream produces frames again without a separate trigger
func (d *alsaDevice) Prepare() error {
	if err := d.pcm.Prepare(); err != nil {
		return err
	}
	return d.pcm.Start()
}

func (d *alsaDevice) Resume() error {
	return mapRetryable(d.pcm.Resume())
}

func (d *alsaDevice) Wait(timeout time.Duration) (bool, error) { return d.pcm.Wait(timeout) }

func (d *alsaDevice) ReadNonInterleaved(planes [][]byte, frames int) (int, error) {
	n, err := d.pcm.ReadNonInterleaved(planes, frames)
	return n, mapRetryable(err)
}

func (d *alsaDevice) Delay() (int, error) { return d.pcm.Delay() }

func (d *alsaDevice) State() DeviceState {
	state, err := d.pcm.State()
	if err != nil {
		return DeviceUnknown
	}
	switch state {
	case alsa.StatePrepared:
		return DevicePrepared
	case alsa.StateRunning:
		return DeviceRunning
	case alsa.StateXRun:
		return DeviceXRun
	case alsa.StateSuspended:
		return DeviceSuspended
	case alsa.StateDisconnected:
		return DeviceDisconnected
	}
	return DeviceUnknown
}

func (d *alsaDevice) Close() error { return d.pcm.Close() }

// mapRetryable folds the would-block errnos into ErrAgain so the loop can
// branch without knowing errno values
func mapRetryable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return ErrAgain
	}
	return err
}

// alsaParams adapts the kernel configuration space to the negotiator
type alsaParams struct {
	hw *alsa.HwParams
}

var alsaFormats = map[source.SampleFormat]int{
	source.FormatS16LE: alsa.FormatS16LE,
	source.FormatS32LE: alsa.FormatS32LE,
	source.FormatFloat: alsa.FormatFloatLE,
}

func (p *alsaParams) SetAccessNonInterleaved() error {
	return p.hw.SetAccess(alsa.AccessRWNonInterleaved)
}

func (p *alsaParams) SetFormat(format source.SampleFormat) error {
	code, ok := alsaFormats[format]
	if !ok {
		return fmt.Errorf("unsupported sample format %q", format)
	}
	return p.hw.SetFormat(code)
}

func (p *alsaParams) SetChannels(channels int) error { return p.hw.SetChannels(channels) }
func (p *alsaParams) SetRateNear(rate int) (int, error) {
	return p.hw.SetRateNear(rate)
}

func (p *alsaParams) BufferTimeMax() int { return p.hw.BufferTimeMax() }
func (p *alsaParams) PeriodTimeMin() int { return p.hw.PeriodTimeMin() }

func (p *alsaParams) SetBufferTimeNear(us int) (int, error) { return p.hw.SetBufferTimeNear(us) }
func (p *alsaParams) SetPeriodTimeNear(us int) (int, error) { return p.hw.SetPeriodTimeNear(us) }

func (p *alsaParams) PeriodSize() int { return p.hw.PeriodSize() }
func (p *alsaParams) BufferSize() int { return p.hw.BufferSize() }
