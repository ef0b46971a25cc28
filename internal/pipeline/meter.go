package pipeline

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/metrics"
	"github.com/smazurov/audionode/internal/source"
)

// Publisher is the event bus surface the meter needs.
type Publisher interface {
	Publish(ev events.Event)
}

// LevelMeter measures peak and RMS signal levels and publishes them on the
// event bus at a bounded rate. Buffers in formats other than 16-bit are
// skipped rather than rejected, so the meter never disturbs other sinks.
type LevelMeter struct {
	source   string
	bus      Publisher
	interval time.Duration

	peak       float64
	sumSquares float64
	samples    int
	lastFlush  time.Time

	now func() time.Time
}

// NewLevelMeter creates a meter for the named source. The bus may be nil,
// in which case only Prometheus gauges are updated.
func NewLevelMeter(sourceName string, bus Publisher) *LevelMeter {
	return &LevelMeter{
		source:   sourceName,
		bus:      bus,
		interval: time.Second,
		now:      time.Now,
	}
}

// Name implements Sink.
func (m *LevelMeter) Name() string { return "meter" }

// WriteAudio accumulates the window and publishes once per interval.
func (m *LevelMeter) WriteAudio(a source.Audio) error {
	if a.Format != source.FormatS16LE {
		return nil
	}

	for _, plane := range a.Planes {
		for off := 0; off+1 < len(plane); off += 2 {
			v := float64(int16(binary.LittleEndian.Uint16(plane[off:]))) / 32768
			if v < 0 {
				v = -v
			}
			if v > m.peak {
				m.peak = v
			}
			m.sumSquares += v * v
			m.samples++
		}
	}

	now := m.now()
	if now.Sub(m.lastFlush) < m.interval {
		return nil
	}
	m.flush(now)
	return nil
}

// Close publishes whatever remains of the current window.
func (m *LevelMeter) Close() error {
	m.flush(m.now())
	return nil
}

func (m *LevelMeter) flush(now time.Time) {
	if m.samples == 0 {
		return
	}
	rms := math.Sqrt(m.sumSquares / float64(m.samples))

	metrics.SetAudioLevel(m.source, m.peak, rms)
	if m.bus != nil {
		m.bus.Publish(events.AudioLevelEvent{
			Name:      m.source,
			Peak:      m.peak,
			RMS:       rms,
			Timestamp: now.Format(time.RFC3339),
		})
	}

	m.peak = 0
	m.sumSquares = 0
	m.samples = 0
	m.lastFlush = now
}
