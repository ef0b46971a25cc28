package capture

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/source"
)

// newTestLoop wires a loop around a small fixed configuration: stereo
// S16_LE at 48 kHz with a 100-frame period
func newTestLoop(dev Device, out source.Output) *loop {
	cfg := HwConfig{
		Format:     source.FormatS16LE,
		Channels:   2,
		Rate:       48000,
		PeriodSize: 100,
		BufferSize: 400,
		PeriodTime: 2083,
		BufferTime: 8333,
	}
	planes := make([][]byte, cfg.Channels)
	for i := range planes {
		planes[i] = make([]byte, cfg.PeriodSize*cfg.Format.Bytes())
	}
	l := &loop{
		dev:    dev,
		cfg:    cfg,
		out:    out,
		log:    testLogger(),
		now:    func() uint64 { return 0 },
		sleep:  func(time.Duration) {},
		planes: planes,
		views:  make([][]byte, cfg.Channels),
	}
	l.state.Store(StateIdle)
	return l
}

func TestReadPeriodAccumulates(t *testing.T) {
	dev := newFakeDevice()
	dev.reads = []readResult{{n: 40, fill: 0xaa}, {n: 60, fill: 0xbb}}
	l := newTestLoop(dev, newFakeOutput(0))

	got, err := l.readPeriod(context.Background())
	if err != nil {
		t.Fatalf("readPeriod() error = %v", err)
	}
	if got != 100 {
		t.Errorf("readPeriod() = %d frames, want 100", got)
	}
	if want := []int{100, 60}; !reflect.DeepEqual(dev.reqFrames, want) {
		t.Errorf("requested frames = %v, want %v", dev.reqFrames, want)
	}
	if want := []int{200, 120}; !reflect.DeepEqual(dev.readLens, want) {
		t.Errorf("read plane lengths = %v, want %v", dev.readLens, want)
	}
	for ch, p := range l.planes {
		for i := 0; i < 200; i++ {
			want := byte(0xaa)
			if i >= 80 {
				want = 0xbb
			}
			if p[i] != want {
				t.Fatalf("plane %d byte %d = %#x, want %#x", ch, i, p[i], want)
			}
		}
	}
}

func TestReadPeriodRetries(t *testing.T) {
	tests := []struct {
		name  string
		first readResult
	}{
		{"retryable error", readResult{err: ErrAgain}},
		{"empty read", readResult{n: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.reads = []readResult{tt.first, {n: 100}}
			l := newTestLoop(dev, newFakeOutput(0))

			got, err := l.readPeriod(context.Background())
			if err != nil {
				t.Fatalf("readPeriod() error = %v", err)
			}
			if got != 100 {
				t.Errorf("readPeriod() = %d frames, want 100", got)
			}
			if dev.readCalls != 2 {
				t.Errorf("read calls = %d, want 2", dev.readCalls)
			}
			if dev.waitCalls != 1 {
				t.Errorf("wait calls = %d, want 1", dev.waitCalls)
			}
		})
	}
}

func TestReadPeriodReturnsPartialOnFault(t *testing.T) {
	dev := newFakeDevice()
	dev.reads = []readResult{{n: 30}, {err: errors.New("broken pipe"), thenState: DeviceXRun}}
	l := newTestLoop(dev, newFakeOutput(0))

	got, err := l.readPeriod(context.Background())
	if err == nil {
		t.Fatal("readPeriod() error = nil, want fault")
	}
	if got != 30 {
		t.Errorf("readPeriod() = %d frames, want the 30 accumulated before the fault", got)
	}
}

func TestReadPeriodWaitFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.reads = []readResult{{err: ErrAgain}}
	dev.waitErr = errors.New("device gone")
	l := newTestLoop(dev, newFakeOutput(0))

	got, err := l.readPeriod(context.Background())
	if err == nil {
		t.Fatal("readPeriod() error = nil, want wait failure")
	}
	if got != 0 {
		t.Errorf("readPeriod() = %d frames, want 0", got)
	}
}

func TestReadPeriodStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := newFakeDevice()
	dev.reads = []readResult{{n: 40}}
	l := newTestLoop(dev, newFakeOutput(0))

	got, err := l.readPeriod(ctx)
	if err != nil {
		t.Fatalf("readPeriod() error = %v", err)
	}
	if got != 0 {
		t.Errorf("readPeriod() = %d frames, want 0", got)
	}
	if dev.readCalls != 0 {
		t.Errorf("read calls = %d, want none after cancellation", dev.readCalls)
	}
}

func TestDeliver(t *testing.T) {
	dev := newFakeDevice()
	dev.delay = 100
	out := newFakeOutput(0)
	l := newTestLoop(dev, out)
	l.now = func() uint64 { return 1000000000 }
	for i := range l.planes[0] {
		l.planes[0][i] = 1
		l.planes[1][i] = 2
	}

	l.deliver(50)

	got := out.buffers()
	if len(got) != 1 {
		t.Fatalf("delivered %d buffers, want 1", len(got))
	}
	a := got[0]
	if a.Frames != 50 || a.Rate != 48000 || a.Channels != 2 || a.Format != source.FormatS16LE {
		t.Errorf("Audio = %d frames %d Hz %d ch %q, want 50 frames 48000 Hz 2 ch %q",
			a.Frames, a.Rate, a.Channels, a.Format, source.FormatS16LE)
	}
	if len(a.Planes) != 2 {
		t.Fatalf("planes = %d, want 2", len(a.Planes))
	}
	for ch, p := range a.Planes {
		if len(p) != 100 {
			t.Errorf("plane %d length = %d bytes, want 100", ch, len(p))
		}
		if p[0] != byte(ch+1) {
			t.Errorf("plane %d content = %d, want %d", ch, p[0], ch+1)
		}
	}
	// 150 held frames at 48 kHz is 3125000 ns before "now"
	if want := uint64(996875000); a.Timestamp != want {
		t.Errorf("Timestamp = %d, want %d", a.Timestamp, want)
	}
	if stats := l.stats(); stats.Buffers != 1 || stats.Frames != 50 {
		t.Errorf("stats = %+v, want 1 buffer of 50 frames", stats)
	}
}

func TestDeliverToleratesFaults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeDevice, *fakeOutput)
	}{
		{"rejected buffer", func(d *fakeDevice, o *fakeOutput) { o.reject = errors.New("queue full") }},
		{"delay query failure", func(d *fakeDevice, o *fakeOutput) { d.delayErr = errors.New("io error") }},
		{"negative delay", func(d *fakeDevice, o *fakeOutput) { d.delay = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			out := newFakeOutput(0)
			tt.mutate(dev, out)
			l := newTestLoop(dev, out)
			l.now = func() uint64 { return 1000000000 }

			l.deliver(50)

			got := out.buffers()
			if len(got) != 1 {
				t.Fatalf("delivered %d buffers, want 1", len(got))
			}
			// a broken or negative delay counts as zero held frames
			if want := uint64(1000000000 - 50*1000000000/48000); got[0].Timestamp != want {
				t.Errorf("Timestamp = %d, want %d", got[0].Timestamp, want)
			}
			if stats := l.stats(); stats.Buffers != 1 {
				t.Errorf("buffers = %d, want 1", stats.Buffers)
			}
		})
	}
}

type steppingClock struct {
	t    uint64
	step uint64
}

func (c *steppingClock) now() uint64 {
	c.t += c.step
	return c.t
}

func TestTimestampMonotonic(t *testing.T) {
	dev := newFakeDevice()
	out := newFakeOutput(0)
	l := newTestLoop(dev, out)

	// one 100-frame period at 48 kHz spans 2083333 ns; the clock advances
	// by exactly that much per delivery
	clock := &steppingClock{t: 1000000000, step: 2083333}
	l.now = clock.now

	l.deliver(100)
	l.deliver(100)

	got := out.buffers()
	if len(got) != 2 {
		t.Fatalf("delivered %d buffers, want 2", len(got))
	}
	first, second := got[0].Timestamp, got[1].Timestamp
	if second <= first {
		t.Fatalf("timestamps not increasing: %d then %d", first, second)
	}
	if want := uint64(2083333); second-first != want {
		t.Errorf("timestamp advance = %d ns, want %d ns for 100 frames at 48 kHz", second-first, want)
	}
}

func TestTimestampUnderflowClamps(t *testing.T) {
	l := newTestLoop(newFakeDevice(), newFakeOutput(0))
	l.now = func() uint64 { return 1000 }

	if got := l.timestamp(100, 0); got != 0 {
		t.Errorf("timestamp(100, 0) = %d, want 0 when the clock has barely started", got)
	}
}

func TestRecoverDevice(t *testing.T) {
	t.Run("suspended resumes then prepares", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceSuspended
		dev.resumes = []error{ErrAgain, ErrAgain, nil}
		l := newTestLoop(dev, newFakeOutput(0))
		var slept []time.Duration
		l.sleep = func(d time.Duration) { slept = append(slept, d) }

		if !l.recoverDevice(context.Background()) {
			t.Fatal("recoverDevice() = false, want true")
		}
		if dev.resumeCalls != 3 {
			t.Errorf("resume calls = %d, want 3", dev.resumeCalls)
		}
		if dev.prepareCalls != 1 {
			t.Errorf("prepare calls = %d, want 1", dev.prepareCalls)
		}
		if len(slept) != 2 || slept[0] != resumeInterval || slept[1] != resumeInterval {
			t.Errorf("sleeps = %v, want two of %v", slept, resumeInterval)
		}
		if stats := l.stats(); stats.Suspends != 1 {
			t.Errorf("suspends = %d, want 1", stats.Suspends)
		}
	})

	t.Run("resume failure still prepares", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceSuspended
		dev.resumes = []error{errors.New("resume not supported")}
		l := newTestLoop(dev, newFakeOutput(0))

		if !l.recoverDevice(context.Background()) {
			t.Fatal("recoverDevice() = false, want true")
		}
		if dev.resumeCalls != 1 {
			t.Errorf("resume calls = %d, want 1", dev.resumeCalls)
		}
		if dev.prepareCalls != 1 {
			t.Errorf("prepare calls = %d, want 1", dev.prepareCalls)
		}
	})

	t.Run("xrun prepares only", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceXRun
		l := newTestLoop(dev, newFakeOutput(0))

		if !l.recoverDevice(context.Background()) {
			t.Fatal("recoverDevice() = false, want true")
		}
		if dev.prepareCalls != 1 {
			t.Errorf("prepare calls = %d, want 1", dev.prepareCalls)
		}
		if dev.resumeCalls != 0 {
			t.Errorf("resume calls = %d, want none for an overrun", dev.resumeCalls)
		}
		if stats := l.stats(); stats.XRuns != 1 {
			t.Errorf("xruns = %d, want 1", stats.XRuns)
		}
	})

	t.Run("disconnected is unrecoverable", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceDisconnected
		l := newTestLoop(dev, newFakeOutput(0))

		if l.recoverDevice(context.Background()) {
			t.Fatal("recoverDevice() = true, want false")
		}
		if dev.prepareCalls != 0 || dev.resumeCalls != 0 || dev.startCalls != 0 {
			t.Errorf("hardware calls = (%d prepare, %d resume, %d start), want none",
				dev.prepareCalls, dev.resumeCalls, dev.startCalls)
		}
	})

	t.Run("prepare failure is fatal", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceXRun
		dev.prepareErr = errors.New("prepare failed")
		l := newTestLoop(dev, newFakeOutput(0))

		if l.recoverDevice(context.Background()) {
			t.Fatal("recoverDevice() = true, want false")
		}
	})

	t.Run("stop during resume retries", func(t *testing.T) {
		dev := newFakeDevice()
		dev.state = DeviceSuspended
		dev.resumes = []error{ErrAgain, ErrAgain, ErrAgain, ErrAgain}
		l := newTestLoop(dev, newFakeOutput(0))

		ctx, cancel := context.WithCancel(context.Background())
		l.sleep = func(time.Duration) { cancel() }

		if !l.recoverDevice(ctx) {
			t.Fatal("recoverDevice() = false, want true")
		}
		if dev.resumeCalls != 2 {
			t.Errorf("resume calls = %d, want 2 before honoring the stop signal", dev.resumeCalls)
		}
	})
}
