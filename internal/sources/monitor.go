package sources

import (
	"context"
	"sync"
	"time"

	"github.com/smazurov/audionode/internal/capture"
	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/metrics"
)

// snapshotter is implemented by sources that expose their negotiated
// session parameters and fault counters.
type snapshotter interface {
	Snapshot() (capture.HwConfig, capture.Stats, capture.State, bool)
}

// snapshotState is what the monitor remembers about a source between
// sweeps, to detect transitions.
type snapshotState struct {
	state string
	stats capture.Stats
}

// monitor polls the running sources once a second and is the only
// publisher of state change and recovery events. Centralizing the
// observation keeps the capture loop free of event plumbing.
type monitor struct {
	svc      *Service
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	seen map[string]snapshotState
}

func newMonitor(svc *Service, interval time.Duration) *monitor {
	return &monitor{
		svc:      svc,
		interval: interval,
		seen:     make(map[string]snapshotState),
	}
}

func (m *monitor) start() {
	if m.cancel != nil {
		return
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.wg.Add(1)
	go m.run()
}

func (m *monitor) stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.cancel = nil
}

func (m *monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// forget drops a deleted source's bookkeeping so the next sweep does not
// announce it going idle.
func (m *monitor) forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, name)
}

// sweep compares every active source against the previous observation and
// publishes the differences.
func (m *monitor) sweep() {
	active := m.svc.activeSources()
	now := time.Now().Format(time.RFC3339)

	m.mu.Lock()
	defer m.mu.Unlock()

	for name, src := range active {
		st := src.Status()
		prev, known := m.seen[name]

		if !known || prev.state != st.State {
			metrics.SetCaptureRunning(name, st.State == "running")
			m.svc.publish(events.SourceStateChangedEvent{
				Name:      name,
				State:     st.State,
				Rate:      st.Rate,
				Channels:  st.Channels,
				Timestamp: now,
			})
		}

		entry := snapshotState{state: st.State, stats: prev.stats}
		if snap, ok := src.(snapshotter); ok {
			if hw, stats, _, live := snap.Snapshot(); live {
				metrics.SetCaptureSession(name, hw.Rate, hw.Channels)
				metrics.SetCaptureStats(name, stats.Buffers, stats.Frames, stats.XRuns, stats.Suspends)
				if known && stats.XRuns > prev.stats.XRuns {
					m.svc.publish(events.CaptureRecoveryEvent{Name: name, Kind: "overrun", Timestamp: now})
				}
				if known && stats.Suspends > prev.stats.Suspends {
					m.svc.publish(events.CaptureRecoveryEvent{Name: name, Kind: "suspend", Timestamp: now})
				}
				entry.stats = stats
			}
		}
		m.seen[name] = entry
	}

	// Anything remembered but no longer active was stopped since the
	// last sweep.
	for name := range m.seen {
		if _, ok := active[name]; ok {
			continue
		}
		delete(m.seen, name)
		metrics.SetCaptureRunning(name, false)
		m.svc.publish(events.SourceStateChangedEvent{
			Name:      name,
			State:     "idle",
			Timestamp: now,
		})
	}
}
