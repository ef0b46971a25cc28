package capture

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openerFor(dev Device) Opener {
	return func(string) (Device, error) { return dev, nil }
}

// fakeParams simulates a hardware configuration space as plain min/max
// capability ranges with near-style clamping
type fakeParams struct {
	rateMin, rateMax             int
	bufferTimeMin, bufferTimeMax int
	periodTimeMin, periodTimeMax int

	accessErr   error
	formatErr   error
	channelsErr error

	format   source.SampleFormat
	channels int
	rate     int

	bufferTime int
	periodTime int
}

// newFakeParams returns a wide-open capability space that accepts any
// common request
func newFakeParams() *fakeParams {
	return &fakeParams{
		rateMin:       8000,
		rateMax:       192000,
		bufferTimeMin: 1000,
		bufferTimeMax: 2000000,
		periodTimeMin: 100,
		periodTimeMax: 1000000,
	}
}

func (p *fakeParams) SetAccessNonInterleaved() error { return p.accessErr }

func (p *fakeParams) SetFormat(format source.SampleFormat) error {
	if p.formatErr != nil {
		return p.formatErr
	}
	p.format = format
	return nil
}

func (p *fakeParams) SetChannels(channels int) error {
	if p.channelsErr != nil {
		return p.channelsErr
	}
	p.channels = channels
	return nil
}

func (p *fakeParams) SetRateNear(rate int) (int, error) {
	p.rate = clampInt(rate, p.rateMin, p.rateMax)
	return p.rate, nil
}

func (p *fakeParams) BufferTimeMax() int { return p.bufferTimeMax }
func (p *fakeParams) PeriodTimeMin() int { return p.periodTimeMin }

func (p *fakeParams) SetBufferTimeNear(us int) (int, error) {
	p.bufferTime = clampInt(us, p.bufferTimeMin, p.bufferTimeMax)
	return p.bufferTime, nil
}

func (p *fakeParams) SetPeriodTimeNear(us int) (int, error) {
	p.periodTime = clampInt(us, p.periodTimeMin, p.periodTimeMax)
	return p.periodTime, nil
}

func (p *fakeParams) PeriodSize() int { return int(int64(p.periodTime) * int64(p.rate) / 1000000) }
func (p *fakeParams) BufferSize() int { return int(int64(p.bufferTime) * int64(p.rate) / 1000000) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// readResult scripts one ReadNonInterleaved call. A faulting entry may
// also flip the device into the state that caused the fault.
type readResult struct {
	n         int
	err       error
	fill      byte // written over the returned frames, 16-bit samples
	thenState DeviceState
}

// fakeDevice is a scripted capture stream. The capture loop drives it
// from one goroutine; tests read the recorded calls after joining.
type fakeDevice struct {
	params    *fakeParams
	paramsErr error
	applyErr  error
	applied   bool

	startErr   error
	startCalls int

	reads     []readResult
	readCalls int
	readLens  []int // first-plane length per read, shrinks with the offset
	reqFrames []int // frames requested per read

	waitCalls int
	waitErr   error // returned by the next Wait, then cleared

	resumes     []error
	resumeCalls int

	prepareErr   error
	prepareCalls int

	delay    int
	delayErr error

	state  DeviceState
	closed bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{params: newFakeParams(), state: DeviceRunning}
}

func (d *fakeDevice) HwParamsAny() (HwParams, error) {
	if d.paramsErr != nil {
		return nil, d.paramsErr
	}
	return d.params, nil
}

func (d *fakeDevice) Apply(HwParams) error {
	if d.applyErr != nil {
		return d.applyErr
	}
	d.applied = true
	return nil
}

func (d *fakeDevice) Start() error {
	d.startCalls++
	return d.startErr
}

func (d *fakeDevice) Prepare() error {
	d.prepareCalls++
	if d.prepareErr != nil {
		return d.prepareErr
	}
	d.state = DeviceRunning
	return nil
}

func (d *fakeDevice) Resume() error {
	d.resumeCalls++
	if len(d.resumes) == 0 {
		return nil
	}
	err := d.resumes[0]
	d.resumes = d.resumes[1:]
	return err
}

func (d *fakeDevice) Wait(timeout time.Duration) (bool, error) {
	d.waitCalls++
	if d.waitErr != nil {
		err := d.waitErr
		d.waitErr = nil
		return false, err
	}
	if len(d.reads) == 0 {
		// script exhausted; pace the loop until the test stops it
		time.Sleep(time.Millisecond)
		return false, nil
	}
	return true, nil
}

func (d *fakeDevice) ReadNonInterleaved(planes [][]byte, frames int) (int, error) {
	d.readCalls++
	d.readLens = append(d.readLens, len(planes[0]))
	d.reqFrames = append(d.reqFrames, frames)
	if len(d.reads) == 0 {
		return 0, ErrAgain
	}
	r := d.reads[0]
	d.reads = d.reads[1:]
	if r.err != nil && r.thenState != DeviceUnknown {
		d.state = r.thenState
	}
	n := r.n
	if n > frames {
		n = frames
	}
	if n > 0 && r.fill != 0 {
		for _, p := range planes {
			for i := 0; i < n*2 && i < len(p); i++ {
				p[i] = r.fill
			}
		}
	}
	return n, r.err
}

func (d *fakeDevice) Delay() (int, error) { return d.delay, d.delayErr }

func (d *fakeDevice) State() DeviceState { return d.state }

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// fakeOutput records delivered buffers, copying the planes since they are
// only valid for the duration of the call
type fakeOutput struct {
	mu     sync.Mutex
	got    []source.Audio
	reject error

	target int
	done   chan struct{}
	fired  bool
}

func newFakeOutput(target int) *fakeOutput {
	return &fakeOutput{target: target, done: make(chan struct{})}
}

func (o *fakeOutput) OutputAudio(a source.Audio) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	copied := a
	copied.Planes = make([][]byte, len(a.Planes))
	for i, p := range a.Planes {
		copied.Planes[i] = append([]byte(nil), p...)
	}
	o.got = append(o.got, copied)
	if !o.fired && o.target > 0 && len(o.got) >= o.target {
		o.fired = true
		close(o.done)
	}
	return o.reject
}

func (o *fakeOutput) buffers() []source.Audio {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]source.Audio(nil), o.got...)
}

// waitDelivery blocks until the output has seen its target buffer count
func waitDelivery(t *testing.T, o *fakeOutput) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for buffer delivery")
	}
}
