package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/audionode/internal/source"
)

// Capture is fixed to signed 16-bit little-endian at a 48 kHz request;
// only the channel count is configurable (mono or stereo). The negotiated
// rate may still differ where hardware cannot do 48 kHz.
const (
	DefaultRate   = 48000
	DefaultFormat = source.FormatS16LE
)

// Config describes one capture session to be started
type Config struct {
	Selector string
	Channels int
	Open     Opener
	Output   source.Output
	Logger   *slog.Logger

	// test seams; production leaves them nil
	now   func() uint64
	sleep func(time.Duration)
}

// Session couples one open device handle with one capture goroutine. The
// two are created together by Start and released together by Stop; no
// state with only one of them alive is ever observable.
type Session struct {
	ID string
	Hw HwConfig

	mu     sync.Mutex
	dev    Device
	cancel context.CancelFunc

	loop *loop
	wg   sync.WaitGroup
}

// Start opens the selector's device, negotiates hardware parameters,
// allocates the delivery scratch buffer, and launches the capture loop.
// It returns a fully running session, or an error with every partially
// acquired resource already released.
func Start(cfg Config) (*Session, error) {
	if cfg.Channels < 1 || cfg.Channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", cfg.Channels)
	}
	if cfg.Open == nil || cfg.Output == nil {
		return nil, fmt.Errorf("capture config missing opener or output")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dev, err := cfg.Open(cfg.Selector)
	if err != nil {
		return nil, fmt.Errorf("open capture device %q: %w", cfg.Selector, err)
	}

	hw, err := negotiate(dev, DefaultFormat, cfg.Channels, DefaultRate)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("negotiate %q: %w", cfg.Selector, err)
	}

	id := uuid.NewString()
	logger = logger.With("session", id)
	logger.Info("Capture session negotiated",
		"device", cfg.Selector,
		"rate", hw.Rate,
		"channels", hw.Channels,
		"period_frames", hw.PeriodSize,
		"buffer_frames", hw.BufferSize)

	planes := make([][]byte, hw.Channels)
	for i := range planes {
		planes[i] = make([]byte, hw.PeriodSize*hw.Format.Bytes())
	}

	l := &loop{
		dev:    dev,
		cfg:    hw,
		out:    cfg.Output,
		log:    logger,
		now:    cfg.now,
		sleep:  cfg.sleep,
		planes: planes,
		views:  make([][]byte, hw.Channels),
	}
	if l.now == nil {
		l.now = monotonicNow
	}
	if l.sleep == nil {
		l.sleep = time.Sleep
	}
	l.state.Store(StateIdle)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{ID: id, Hw: hw, dev: dev, cancel: cancel, loop: l}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		l.run(ctx)
	}()
	return s, nil
}

// Stop signals the loop, waits for it to exit, and closes the device.
// The join is not bounded by a timeout: every wait inside the loop is,
// so the loop reacts to the signal within roughly one period. Stopping
// a nil or already-stopped session is a no-op.
func (s *Session) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	dev := s.dev
	cancel := s.cancel
	s.dev = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	if err := dev.Close(); err != nil {
		s.loop.log.Warn("Device close failed", "error", err)
	}
	s.loop.log.Info("Capture session stopped")
}

// Active reports whether the session still owns a device handle
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev != nil
}

// State reports the capture loop's current lifecycle state
func (s *Session) State() State {
	return s.loop.currentState()
}

// Stats reports the loop's delivery and recovery counters
func (s *Session) Stats() Stats {
	return s.loop.stats()
}
