package sources

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/capture"
	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/source"
)

// testDriver is registered once for the whole test binary; the registry
// has no removal, matching database/sql.
var testDriver = &fakeDriver{}

func init() {
	source.Register(testDriver)
}

// fakeDriver builds controllable sources so service tests run without
// audio hardware.
type fakeDriver struct {
	mu      sync.Mutex
	created []*fakeSource
}

func (d *fakeDriver) Name() string  { return "fake_capture" }
func (d *fakeDriver) Label() string { return "Fake Capture" }

func (d *fakeDriver) Defaults() source.Settings {
	return source.Settings{Device: "default"}
}

func (d *fakeDriver) Properties() []source.Property { return nil }

func (d *fakeDriver) Create(settings source.Settings, out source.Output) (source.Source, error) {
	src := &fakeSource{
		settings: settings,
		status:   source.Status{State: "running", Rate: 48000, Channels: 2},
	}
	d.mu.Lock()
	d.created = append(d.created, src)
	d.mu.Unlock()
	return src, nil
}

func (d *fakeDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = nil
}

func (d *fakeDriver) last() *fakeSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.created) == 0 {
		return nil
	}
	return d.created[len(d.created)-1]
}

func (d *fakeDriver) createdCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.created)
}

// fakeSource reports a scriptable status and records settings updates.
type fakeSource struct {
	mu       sync.Mutex
	settings source.Settings
	status   source.Status
	updates  int
	closed   bool

	snapOK    bool
	snapHw    capture.HwConfig
	snapStats capture.Stats
	snapState capture.State
}

func (f *fakeSource) Update(settings source.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = settings
	f.updates++
	return nil
}

func (f *fakeSource) Status() source.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) Snapshot() (capture.HwConfig, capture.Stats, capture.State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapHw, f.snapStats, f.snapState, f.snapOK
}

func (f *fakeSource) setState(state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = state
}

func (f *fakeSource) setSnapshot(hw capture.HwConfig, stats capture.Stats, state capture.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapOK = true
	f.snapHw, f.snapStats, f.snapState = hw, stats, state
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSource) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func (f *fakeSource) currentSettings() source.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

// newTestService wires a service to a temporary store and a quiet logger.
func newTestService(t *testing.T) *Service {
	t.Helper()
	testDriver.reset()

	st := NewStore(filepath.Join(t.TempDir(), "sources.toml"))
	if err := st.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(st, events.New(), logger)
	t.Cleanup(svc.Close)
	return svc
}

// waitForEvent drains ch until match accepts an event or a second passes.
func waitForEvent(t *testing.T, ch <-chan any, match func(any) bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			if match(ev) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func assertNoEvent(t *testing.T, ch <-chan any, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %#v", ev)
	case <-time.After(wait):
	}
}
