package sources

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/metrics"
	"github.com/smazurov/audionode/internal/pipeline"
	"github.com/smazurov/audionode/internal/source"
)

// rtpPayloadType is the dynamic payload type announced for L16 audio.
const rtpPayloadType = 96

// Info is the external view of one source: its persisted configuration
// plus what the runtime currently reports about it.
type Info struct {
	SourceConfig
	Status source.Status `json:"status"`
	Sinks  []string      `json:"sinks,omitempty"`
}

// UpdateParams carries optional changes to an existing source. Nil fields
// are left untouched.
type UpdateParams struct {
	Settings    *source.Settings
	Destination *string
	Autostart   *bool
}

// runtimeSource is one active capture pipeline.
type runtimeSource struct {
	config SourceConfig
	hub    *pipeline.Hub
	src    source.Source
}

// Service owns source configurations and their running pipelines. The
// store is unsynchronized; all access goes through the service mutex.
type Service struct {
	store  *Store
	bus    *events.Bus
	logger *slog.Logger

	mu      sync.RWMutex
	actives map[string]*runtimeSource

	monitor *monitor
}

// NewService creates the source service on top of a loaded store.
func NewService(store *Store, bus *events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:   store,
		bus:     bus,
		logger:  logger,
		actives: make(map[string]*runtimeSource),
	}
	s.monitor = newMonitor(s, time.Second)
	return s
}

// StartMonitoring begins the periodic state and counter sweep that feeds
// events and metrics.
func (s *Service) StartMonitoring() {
	s.monitor.start()
}

// Create validates, persists and optionally starts a new source.
func (s *Service) Create(cfg SourceConfig) (Info, error) {
	if cfg.Name == "" {
		return Info{}, NewSourceError(ErrCodeSourceInvalid, "source name cannot be empty", nil)
	}
	drv, ok := source.Lookup(cfg.Driver)
	if !ok {
		return Info{}, NewSourceError(ErrCodeDriverUnknown, "unknown driver: "+cfg.Driver, nil)
	}
	if cfg.Settings.Device == "" {
		cfg.Settings = drv.Defaults()
	}

	s.mu.Lock()
	if _, exists := s.store.Get(cfg.Name); exists {
		s.mu.Unlock()
		return Info{}, NewSourceError(ErrCodeSourceExists, "source already exists: "+cfg.Name, nil)
	}
	if err := s.store.Add(cfg); err != nil {
		s.mu.Unlock()
		return Info{}, NewSourceError(ErrCodeStoreFailed, "failed to persist source", err)
	}
	s.mu.Unlock()

	s.logger.Info("Source created", "name", cfg.Name, "driver", cfg.Driver)
	s.publish(events.SourceCreatedEvent{
		Name:      cfg.Name,
		Driver:    cfg.Driver,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	if cfg.Autostart {
		if err := s.Start(cfg.Name); err != nil {
			s.logger.Warn("Autostart failed", "name", cfg.Name, "error", err)
		}
	}

	return s.Get(cfg.Name)
}

// Update applies partial changes to a source. A running source picks up
// setting changes live; destination changes swap the network sink in
// place.
func (s *Service) Update(name string, params UpdateParams) (Info, error) {
	s.mu.Lock()
	cfg, exists := s.store.Get(name)
	if !exists {
		s.mu.Unlock()
		return Info{}, NewSourceError(ErrCodeSourceNotFound, "source not found: "+name, nil)
	}

	destinationChanged := false
	if params.Settings != nil {
		cfg.Settings = *params.Settings
	}
	if params.Destination != nil && *params.Destination != cfg.Destination {
		cfg.Destination = *params.Destination
		destinationChanged = true
	}
	if params.Autostart != nil {
		cfg.Autostart = *params.Autostart
	}

	if err := s.store.Update(name, cfg); err != nil {
		s.mu.Unlock()
		return Info{}, NewSourceError(ErrCodeStoreFailed, "failed to persist source", err)
	}
	rt, active := s.actives[name]
	if active {
		rt.config = cfg
	}
	s.mu.Unlock()

	if active {
		if destinationChanged {
			if err := s.swapDestination(rt, cfg.Destination); err != nil {
				return Info{}, err
			}
		}
		if params.Settings != nil {
			if err := rt.src.Update(cfg.Settings); err != nil {
				s.logger.Warn("Source settings rejected by device", "name", name, "error", err)
			}
		}
	}

	s.logger.Info("Source updated", "name", name)
	s.publish(events.SourceUpdatedEvent{
		Name:      name,
		DeviceID:  cfg.Settings.Device,
		ForceMono: cfg.Settings.ForceMono,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	return s.Get(name)
}

// swapDestination replaces the network sink on a live pipeline.
func (s *Service) swapDestination(rt *runtimeSource, destination string) error {
	if err := rt.hub.Detach("rtp"); err != nil && !errors.Is(err, pipeline.ErrSinkNotFound) {
		return NewSourceError(ErrCodeSinkFailed, "failed to detach network sink", err)
	}
	if destination == "" {
		return nil
	}
	sink, err := pipeline.NewRTPSink(destination, rtpPayloadType)
	if err != nil {
		return NewSourceError(ErrCodeSinkFailed, "failed to open network sink", err)
	}
	if err := rt.hub.Attach(sink); err != nil {
		sink.Close()
		return NewSourceError(ErrCodeSinkFailed, "failed to attach network sink", err)
	}
	return nil
}

// Delete stops a source if it is running and removes its configuration.
func (s *Service) Delete(name string) error {
	if err := s.Stop(name); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.store.Remove(name); err != nil {
		s.mu.Unlock()
		return NewSourceError(ErrCodeSourceNotFound, "source not found: "+name, err)
	}
	s.mu.Unlock()

	s.monitor.forget(name)
	metrics.DeleteCaptureMetrics(name)
	metrics.DeletePipelineMetrics(name)

	s.logger.Info("Source deleted", "name", name)
	s.publish(events.SourceDeletedEvent{
		Name:      name,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return nil
}

// Start builds the pipeline for a configured source and activates capture.
// Starting an already running source is a no-op.
func (s *Service) Start(name string) error {
	s.mu.Lock()
	cfg, exists := s.store.Get(name)
	if !exists {
		s.mu.Unlock()
		return NewSourceError(ErrCodeSourceNotFound, "source not found: "+name, nil)
	}
	if _, active := s.actives[name]; active {
		s.mu.Unlock()
		return nil
	}

	drv, ok := source.Lookup(cfg.Driver)
	if !ok {
		s.mu.Unlock()
		return NewSourceError(ErrCodeDriverUnknown, "unknown driver: "+cfg.Driver, nil)
	}

	hub := pipeline.NewHub(name, s.logger)
	if err := hub.Attach(pipeline.NewLevelMeter(name, s.bus)); err != nil {
		hub.Close()
		s.mu.Unlock()
		return NewSourceError(ErrCodeSinkFailed, "failed to attach level meter", err)
	}
	if cfg.Destination != "" {
		sink, err := pipeline.NewRTPSink(cfg.Destination, rtpPayloadType)
		if err != nil {
			hub.Close()
			s.mu.Unlock()
			return NewSourceError(ErrCodeSinkFailed, "failed to open network sink", err)
		}
		if attachErr := hub.Attach(sink); attachErr != nil {
			sink.Close()
			hub.Close()
			s.mu.Unlock()
			return NewSourceError(ErrCodeSinkFailed, "failed to attach network sink", attachErr)
		}
	}

	src, err := drv.Create(cfg.Settings, hub)
	if err != nil {
		hub.Close()
		s.mu.Unlock()
		return NewSourceError(ErrCodeSourceInvalid, "failed to create source", err)
	}

	s.actives[name] = &runtimeSource{config: cfg, hub: hub, src: src}
	s.mu.Unlock()

	s.logger.Info("Source started", "name", name, "device", cfg.Settings.Device)
	return nil
}

// Stop tears down a running source's pipeline. Stopping a source that is
// not running succeeds.
func (s *Service) Stop(name string) error {
	s.mu.Lock()
	rt, active := s.actives[name]
	if !active {
		_, exists := s.store.Get(name)
		s.mu.Unlock()
		if !exists {
			return NewSourceError(ErrCodeSourceNotFound, "source not found: "+name, nil)
		}
		return nil
	}
	delete(s.actives, name)
	s.mu.Unlock()

	if err := rt.src.Close(); err != nil {
		s.logger.Warn("Source close failed", "name", name, "error", err)
	}
	rt.hub.Close()

	s.logger.Info("Source stopped", "name", name)
	return nil
}

// Get returns one source's configuration and runtime status.
func (s *Service) Get(name string) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.store.Get(name)
	if !exists {
		return Info{}, NewSourceError(ErrCodeSourceNotFound, "source not found: "+name, nil)
	}
	return s.describe(cfg), nil
}

// List returns all configured sources sorted by name.
func (s *Service) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.store.All()))
	for _, cfg := range s.store.All() {
		infos = append(infos, s.describe(cfg))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// describe builds the Info view; the caller holds at least a read lock.
func (s *Service) describe(cfg SourceConfig) Info {
	info := Info{SourceConfig: cfg, Status: source.Status{State: "idle"}}
	if rt, active := s.actives[cfg.Name]; active {
		info.Status = rt.src.Status()
		info.Sinks = rt.hub.Names()
	}
	return info
}

// StartConfigured starts every source marked autostart. Individual
// failures are logged and skipped so one bad device does not block boot.
func (s *Service) StartConfigured(ctx context.Context) {
	s.mu.RLock()
	names := make([]string, 0)
	for name, cfg := range s.store.All() {
		if cfg.Autostart {
			names = append(names, name)
		}
	}
	s.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		if err := s.Start(name); err != nil {
			s.logger.Error("Failed to start source", "name", name, "error", err)
			continue
		}
	}
}

// Reconcile applies an externally edited configuration file: removed
// sources stop, changed ones restart, newly enabled autostart ones start.
// Reloads triggered by the service's own saves carry no diff and fall
// through.
func (s *Service) Reconcile(cfgs map[string]SourceConfig) {
	s.mu.Lock()
	old := s.store.All()

	var removed, toRestart, toStart []string
	wasActive := make(map[string]bool)
	for name := range old {
		if _, kept := cfgs[name]; !kept {
			removed = append(removed, name)
			_, wasActive[name] = s.actives[name]
		}
	}
	for name, cfg := range cfgs {
		prev, existed := old[name]
		_, active := s.actives[name]
		switch {
		case !existed && cfg.Autostart:
			toStart = append(toStart, name)
		case existed && active && configChanged(prev, cfg):
			toRestart = append(toRestart, name)
		case existed && !active && cfg.Autostart && !prev.Autostart:
			toStart = append(toStart, name)
		}
	}

	s.store.Replace(cfgs)
	s.mu.Unlock()

	sort.Strings(removed)
	sort.Strings(toRestart)
	sort.Strings(toStart)

	for _, name := range removed {
		if wasActive[name] {
			if err := s.Stop(name); err != nil {
				s.logger.Warn("Failed to stop removed source", "name", name, "error", err)
			}
		}
		s.monitor.forget(name)
		metrics.DeleteCaptureMetrics(name)
		metrics.DeletePipelineMetrics(name)
		s.publish(events.SourceDeletedEvent{Name: name, Timestamp: time.Now().Format(time.RFC3339)})
	}
	for _, name := range toRestart {
		if err := s.Stop(name); err != nil {
			s.logger.Warn("Failed to restart changed source", "name", name, "error", err)
			continue
		}
		if err := s.Start(name); err != nil {
			s.logger.Warn("Failed to restart changed source", "name", name, "error", err)
		}
	}
	for _, name := range toStart {
		if err := s.Start(name); err != nil {
			s.logger.Warn("Failed to start source", "name", name, "error", err)
		}
	}

	if len(removed)+len(toRestart)+len(toStart) > 0 {
		s.logger.Info("Sources reconciled from config file",
			"removed", len(removed), "restarted", len(toRestart), "started", len(toStart))
	}
}

// configChanged reports whether the fields that require a pipeline
// restart differ.
func configChanged(a, b SourceConfig) bool {
	return a.Settings != b.Settings || a.Destination != b.Destination || a.Driver != b.Driver
}

// Close stops monitoring and tears down every active source.
func (s *Service) Close() {
	s.monitor.stop()

	s.mu.Lock()
	names := make([]string, 0, len(s.actives))
	for name := range s.actives {
		names = append(names, name)
	}
	s.mu.Unlock()

	for _, name := range names {
		if err := s.Stop(name); err != nil {
			s.logger.Warn("Failed to stop source during shutdown", "name", name, "error", err)
		}
	}
}

// activeSources snapshots the running sources for the monitor sweep.
func (s *Service) activeSources() map[string]source.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]source.Source, len(s.actives))
	for name, rt := range s.actives {
		out[name] = rt.src
	}
	return out
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
