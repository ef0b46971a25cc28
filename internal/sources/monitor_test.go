package sources

import (
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/capture"
	"github.com/smazurov/audionode/internal/events"
)

func TestMonitorPublishesStateChanges(t *testing.T) {
	svc := newTestService(t)

	ch := make(chan any, 16)
	defer events.SubscribeToChannel[events.SourceStateChangedEvent](svc.bus, ch)()

	if _, err := svc.Create(SourceConfig{Name: "mic", Driver: "fake_capture", Autostart: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		st, ok := ev.(events.SourceStateChangedEvent)
		return ok && st.Name == "mic" && st.State == "running" && st.Rate == 48000
	})

	// A steady state produces no further events.
	svc.monitor.sweep()
	assertNoEvent(t, ch, 50*time.Millisecond)

	testDriver.last().setState("error")
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		st, ok := ev.(events.SourceStateChangedEvent)
		return ok && st.Name == "mic" && st.State == "error"
	})
}

func TestMonitorPublishesRecovery(t *testing.T) {
	svc := newTestService(t)

	ch := make(chan any, 16)
	defer events.SubscribeToChannel[events.CaptureRecoveryEvent](svc.bus, ch)()

	if _, err := svc.Create(SourceConfig{Name: "mic", Driver: "fake_capture", Autostart: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	src := testDriver.last()
	hw := capture.HwConfig{Rate: 48000, Channels: 2}

	src.setSnapshot(hw, capture.Stats{Buffers: 10, Frames: 4800}, capture.StateWaiting)

	// The baseline sweep records counters without announcing them.
	svc.monitor.sweep()
	assertNoEvent(t, ch, 50*time.Millisecond)

	src.setSnapshot(hw, capture.Stats{Buffers: 20, Frames: 9600, XRuns: 1}, capture.StateWaiting)
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		rec, ok := ev.(events.CaptureRecoveryEvent)
		return ok && rec.Name == "mic" && rec.Kind == "overrun"
	})

	src.setSnapshot(hw, capture.Stats{Buffers: 30, Frames: 14400, XRuns: 1, Suspends: 2}, capture.StateWaiting)
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		rec, ok := ev.(events.CaptureRecoveryEvent)
		return ok && rec.Name == "mic" && rec.Kind == "suspend"
	})
}

func TestMonitorAnnouncesStops(t *testing.T) {
	svc := newTestService(t)

	ch := make(chan any, 16)
	defer events.SubscribeToChannel[events.SourceStateChangedEvent](svc.bus, ch)()

	if _, err := svc.Create(SourceConfig{Name: "mic", Driver: "fake_capture", Autostart: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		st, ok := ev.(events.SourceStateChangedEvent)
		return ok && st.State == "running"
	})

	if err := svc.Stop("mic"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		st, ok := ev.(events.SourceStateChangedEvent)
		return ok && st.Name == "mic" && st.State == "idle"
	})
}

func TestMonitorForgetsDeleted(t *testing.T) {
	svc := newTestService(t)

	ch := make(chan any, 16)
	defer events.SubscribeToChannel[events.SourceStateChangedEvent](svc.bus, ch)()

	if _, err := svc.Create(SourceConfig{Name: "mic", Driver: "fake_capture", Autostart: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	svc.monitor.sweep()
	waitForEvent(t, ch, func(ev any) bool {
		st, ok := ev.(events.SourceStateChangedEvent)
		return ok && st.State == "running"
	})

	// Delete cleans up the bookkeeping, so no trailing idle event.
	if err := svc.Delete("mic"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	svc.monitor.sweep()
	assertNoEvent(t, ch, 50*time.Millisecond)
}

func TestMonitorStartStop(t *testing.T) {
	svc := newTestService(t)

	svc.StartMonitoring()
	svc.StartMonitoring() // second call is a no-op
	svc.Close()
}
