package capture

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/smazurov/audionode/internal/source"
)

// State is the capture loop's lifecycle state
type State string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateWaiting    State = "waiting"
	StateReading    State = "reading"
	StateDelivering State = "delivering"
	StateRecovering State = "recovering"
	StateStopped    State = "stopped"
)

// Bounded waits inside the loop. The readiness timeout caps shutdown
// latency; the resume interval paces recovery attempts while a suspended
// device wakes up.
const (
	waitTimeout    = time.Second
	resumeInterval = time.Second
)

// Stats counts what a loop has done so far
type Stats struct {
	Buffers  uint64 `json:"buffers"`
	Frames   uint64 `json:"frames"`
	XRuns    uint64 `json:"xruns"`
	Suspends uint64 `json:"suspends"`
}

var processEpoch = time.Now()

// monotonicNow returns nanoseconds on a monotonic clock shared by every
// session in the process
func monotonicNow() uint64 {
	return uint64(time.Since(processEpoch))
}

// loop drives one device from a dedicated goroutine: wait for readiness,
// accumulate a period, timestamp it, deliver it, recover from faults.
type loop struct {
	dev Device
	cfg HwConfig
	out source.Output
	log *slog.Logger

	// injectable clocks for tests
	now   func() uint64
	sleep func(time.Duration)

	planes [][]byte // scratch, one period per channel
	views  [][]byte // reused per-delivery window into planes

	state    atomic.Value // State
	buffers  atomic.Uint64
	frames   atomic.Uint64
	xruns    atomic.Uint64
	suspends atomic.Uint64
}

// run is the capture thread body. Capture is a real-time producer against
// stateful hardware, so the goroutine pins itself to an OS thread for its
// whole lifetime. The context is the stop signal, checked once per outer
// iteration.
func (l *loop) run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.setState(StateStopped)

	l.setState(StateStarting)
	if err := l.dev.Start(); err != nil {
		l.log.Error("Failed to start capture stream", "error", err)
		l.setState(StateRecovering)
		if !l.recoverDevice(ctx) {
			return
		}
	}

	for ctx.Err() == nil {
		l.setState(StateWaiting)
		ready, err := l.dev.Wait(waitTimeout)
		if err != nil {
			l.log.Warn("Device wait failed", "error", err)
			l.setState(StateRecovering)
			if !l.recoverDevice(ctx) {
				return
			}
			continue
		}
		if !ready {
			continue
		}

		l.setState(StateReading)
		frames, readErr := l.readPeriod(ctx)
		if frames > 0 {
			l.setState(StateDelivering)
			l.deliver(frames)
		}
		if readErr != nil {
			l.log.Warn("Device read failed", "error", readErr)
			l.setState(StateRecovering)
			if !l.recoverDevice(ctx) {
				return
			}
		}
	}
}

// readPeriod accumulates one full period into the scratch planes. A single
// read may return fewer frames than requested, so reads repeat until the
// period is filled. ErrAgain results wait for more data without consuming
// any of the period. Returns the frames accumulated so far together with
// the fault, if any, that cut the fill short; the caller delivers whatever
// accumulated before acting on the fault.
func (l *loop) readPeriod(ctx context.Context) (int, error) {
	total := 0
	for total < l.cfg.PeriodSize {
		if ctx.Err() != nil {
			return total, nil
		}
		n, err := l.dev.ReadNonInterleaved(l.planesAt(total), l.cfg.PeriodSize-total)
		switch {
		case errors.Is(err, ErrAgain), err == nil && n == 0:
			if _, werr := l.dev.Wait(waitTimeout); werr != nil {
				return total, werr
			}
		case err != nil:
			return total, err
		default:
			total += n
		}
	}
	return total, nil
}

// planesAt returns per-channel views into the scratch buffer starting at
// the given frame offset
func (l *loop) planesAt(frames int) [][]byte {
	if frames == 0 {
		return l.planes
	}
	offset := frames * l.cfg.Format.Bytes()
	views := make([][]byte, len(l.planes))
	for i, p := range l.planes {
		views[i] = p[offset:]
	}
	return views
}

// deliver hands the accumulated frames to the host pipeline. Rejected
// buffers are dropped, never retried; stream continuity wins over
// per-buffer reliability.
func (l *loop) deliver(frames int) {
	delay, err := l.dev.Delay()
	if err != nil {
		l.log.Debug("Delay query failed", "error", err)
		delay = 0
	}
	if delay < 0 {
		delay = 0
	}

	size := frames * l.cfg.Format.Bytes()
	for i, p := range l.planes {
		l.views[i] = p[:size]
	}

	if err := l.out.OutputAudio(source.Audio{
		Planes:    l.views,
		Frames:    frames,
		Rate:      l.cfg.Rate,
		Channels:  l.cfg.Channels,
		Format:    l.cfg.Format,
		Timestamp: l.timestamp(frames, delay),
	}); err != nil {
		l.log.Debug("Buffer rejected by pipeline", "error", err)
	}
	l.buffers.Add(1)
	l.frames.Add(uint64(frames))
}

// timestamp dates the first frame of a delivered buffer: now, minus how
// long the hardware has been holding these frames (the frames just read
// plus the device's reported extra delay).
func (l *loop) timestamp(frames, delay int) uint64 {
	now := l.now()
	held := uint64(frames+delay) * uint64(time.Second) / uint64(l.cfg.Rate)
	if held > now {
		return 0
	}
	return now - held
}

// recoverDevice picks the recovery action for the device's reported state
// and returns false when the fault is unrecoverable and the loop must stop
func (l *loop) recoverDevice(ctx context.Context) bool {
	switch state := l.dev.State(); state {
	case DeviceSuspended:
		l.suspends.Add(1)
		if err := l.resumeSuspended(ctx); err != nil {
			l.log.Warn("Resume failed, falling back to prepare", "error", err)
		}
		// a resumed device frequently wakes in an overrun-equivalent
		// state, so the ring buffer is reset either way
		return l.reprepare()
	case DeviceXRun:
		l.xruns.Add(1)
		l.log.Info("Overrun detected, resetting ring buffer")
		return l.reprepare()
	default:
		l.log.Error("Unrecoverable device state", "state", state.String())
		return false
	}
}

// resumeSuspended retries the driver resume call with a fixed pause until
// the device wakes or reports a hard failure
func (l *loop) resumeSuspended(ctx context.Context) error {
	for {
		err := l.dev.Resume()
		if !errors.Is(err, ErrAgain) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.sleep(resumeInterval)
	}
}

// reprepare resets the ring buffer pointers after an overrun or resume
func (l *loop) reprepare() bool {
	if err := l.dev.Prepare(); err != nil {
		l.log.Error("Prepare after fault failed", "error", err)
		return false
	}
	return true
}

func (l *loop) setState(s State) {
	l.state.Store(s)
}

func (l *loop) currentState() State {
	if s, ok := l.state.Load().(State); ok {
		return s
	}
	return StateIdle
}

func (l *loop) stats() Stats {
	return Stats{
		Buffers:  l.buffers.Load(),
		Frames:   l.frames.Load(),
		XRuns:    l.xruns.Load(),
		Suspends: l.suspends.Load(),
	}
}
