package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/audionode/internal/events"
)

// Manager subscribes to source events and controls the system LED based on
// the aggregate capture state: solid when every configured source is
// running, blinking otherwise.
type Manager struct {
	controller      Controller
	eventBus        *events.Bus
	unsubscribe     func()
	stopChan        chan struct{}
	logger          *slog.Logger
	sourceStates    map[string]bool // source name -> running state
	sourceStatesMux sync.RWMutex
}

// NewManager creates a new LED manager that reacts to source state changes
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller:   controller,
		eventBus:     eventBus,
		stopChan:     make(chan struct{}),
		logger:       logger,
		sourceStates: make(map[string]bool),
	}
}

// Start begins listening for source state change events
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.SourceStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started")
}

// Stop stops the LED manager and unsubscribes from events
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	close(m.stopChan)
	m.logger.Info("LED manager stopped")
}

// handleEvent processes a single source state changed event
func (m *Manager) handleEvent(event events.SourceStateChangedEvent) {
	name := event.GetSourceName()
	running := event.IsRunning()

	m.sourceStatesMux.Lock()
	m.sourceStates[name] = running
	m.sourceStatesMux.Unlock()

	m.logger.Debug("Source state changed",
		"source", name,
		"running", running)

	m.updateSystemLED()
}

// updateSystemLED sets the system LED pattern based on whether all sources are running
func (m *Manager) updateSystemLED() {
	m.sourceStatesMux.RLock()
	defer m.sourceStatesMux.RUnlock()

	// No sources configured yet, blink while idle
	if len(m.sourceStates) == 0 {
		if err := m.controller.Set("system", true, "blink"); err != nil {
			m.logger.Warn("Failed to set system LED to blink", "error", err)
		}
		return
	}

	allRunning := true
	for _, running := range m.sourceStates {
		if !running {
			allRunning = false
			break
		}
	}

	if allRunning {
		if err := m.controller.Set("system", true, "solid"); err != nil {
			m.logger.Warn("Failed to set system LED to solid", "error", err)
		}
		m.logger.Debug("All sources running, system LED set to solid")
	} else {
		if err := m.controller.Set("system", true, "blink"); err != nil {
			m.logger.Warn("Failed to set system LED to blink", "error", err)
		}
		m.logger.Debug("Not all sources running, system LED set to blink")
	}
}

// GetController returns the underlying LED controller for direct API access
func (m *Manager) GetController() Controller {
	return m.controller
}
