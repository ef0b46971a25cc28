package capture

import (
	"fmt"

	"github.com/smazurov/audionode/internal/source"
)

// Latency bounds for the negotiated ring buffer. The ceiling bounds
// end-to-end latency; the period floor keeps interrupt rates sane on
// hardware that would otherwise offer sub-millisecond periods.
const (
	maxBufferTimeUs     = 500000
	periodsPerBufferMin = 4
)

// HwConfig holds the hardware parameters committed for one session,
// read-only once negotiated.
type HwConfig struct {
	Format     source.SampleFormat
	Channels   int
	Rate       int // negotiated; may differ from the request
	PeriodSize int // frames per read
	BufferSize int // frames in the device ring buffer
	PeriodTime int // µs
	BufferTime int // µs
}

// negotiate walks the device's configuration space in a fixed order and
// commits the result. Every step failure aborts the whole negotiation;
// the device is left open but unconfigured.
func negotiate(dev Device, format source.SampleFormat, channels, rate int) (HwConfig, error) {
	hw, err := dev.HwParamsAny()
	if err != nil {
		return HwConfig{}, fmt.Errorf("query capability range: %w", err)
	}

	if err := hw.SetAccessNonInterleaved(); err != nil {
		return HwConfig{}, fmt.Errorf("set access mode: %w", err)
	}
	if err := hw.SetFormat(format); err != nil {
		return HwConfig{}, fmt.Errorf("set format %s: %w", format, err)
	}
	if err := hw.SetChannels(channels); err != nil {
		return HwConfig{}, fmt.Errorf("set %d channels: %w", channels, err)
	}

	actualRate, err := hw.SetRateNear(rate)
	if err != nil {
		return HwConfig{}, fmt.Errorf("set rate near %d: %w", rate, err)
	}

	bufferTime := hw.BufferTimeMax()
	if bufferTime > maxBufferTimeUs {
		bufferTime = maxBufferTimeUs
	}
	periodTime := hw.PeriodTimeMin()
	if periodTime < bufferTime/periodsPerBufferMin {
		periodTime = bufferTime / periodsPerBufferMin
	}

	actualBufferTime, err := hw.SetBufferTimeNear(bufferTime)
	if err != nil {
		return HwConfig{}, fmt.Errorf("set buffer time near %dµs: %w", bufferTime, err)
	}
	if actualBufferTime > maxBufferTimeUs {
		return HwConfig{}, fmt.Errorf("buffer time %dµs exceeds the %dµs ceiling", actualBufferTime, maxBufferTimeUs)
	}

	actualPeriodTime, err := hw.SetPeriodTimeNear(periodTime)
	if err != nil {
		return HwConfig{}, fmt.Errorf("set period time near %dµs: %w", periodTime, err)
	}
	if actualPeriodTime < actualBufferTime/periodsPerBufferMin {
		return HwConfig{}, fmt.Errorf("period time %dµs below a quarter of the %dµs buffer", actualPeriodTime, actualBufferTime)
	}

	cfg := HwConfig{
		Format:     format,
		Channels:   channels,
		Rate:       actualRate,
		PeriodSize: hw.PeriodSize(),
		BufferSize: hw.BufferSize(),
		PeriodTime: actualPeriodTime,
		BufferTime: actualBufferTime,
	}
	if cfg.PeriodSize <= 0 || cfg.BufferSize <= 0 {
		return HwConfig{}, fmt.Errorf("device reported unusable sizes (period %d, buffer %d frames)", cfg.PeriodSize, cfg.BufferSize)
	}

	if err := dev.Apply(hw); err != nil {
		return HwConfig{}, fmt.Errorf("apply hardware params: %w", err)
	}
	return cfg, nil
}
