package events

// Event type constants for kelindar/event.
const (
	TypeSourceCreated uint32 = iota + 1
	TypeSourceUpdated
	TypeSourceDeleted
	TypeSourceStateChanged
	TypeCaptureRecovery
	TypeAudioLevel
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SourceCreatedEvent represents a newly configured capture source.
type SourceCreatedEvent struct {
	Name      string `json:"name" example:"studio-mic" doc:"Source name"`
	Driver    string `json:"driver" example:"alsa_capture" doc:"Driver that owns the source"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceCreatedEvent.
func (e SourceCreatedEvent) Type() uint32 { return TypeSourceCreated }

// SourceUpdatedEvent represents a settings change applied to a source.
type SourceUpdatedEvent struct {
	Name      string `json:"name" example:"studio-mic" doc:"Source name"`
	DeviceID  string `json:"device_id" example:"hw:1,0" doc:"Capture device selector"`
	ForceMono bool   `json:"force_mono" example:"false" doc:"Whether mono capture is forced"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceUpdatedEvent.
func (e SourceUpdatedEvent) Type() uint32 { return TypeSourceUpdated }

// SourceDeletedEvent represents a removed capture source.
type SourceDeletedEvent struct {
	Name      string `json:"name" example:"studio-mic" doc:"Deleted source name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceDeletedEvent.
func (e SourceDeletedEvent) Type() uint32 { return TypeSourceDeleted }

// SourceStateChangedEvent represents a capture source lifecycle transition.
// Used for LED control and other reactive subsystems.
type SourceStateChangedEvent struct {
	Name      string `json:"name" example:"studio-mic" doc:"Source name"`
	State     string `json:"state" example:"running" doc:"Lifecycle state: idle, running or error"`
	Rate      int    `json:"rate,omitempty" example:"48000" doc:"Negotiated sample rate"`
	Channels  int    `json:"channels,omitempty" example:"2" doc:"Negotiated channel count"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceStateChangedEvent.
func (e SourceStateChangedEvent) Type() uint32 { return TypeSourceStateChanged }

// GetSourceName implements the SourceStateEvent interface for the LED manager.
func (e SourceStateChangedEvent) GetSourceName() string {
	return e.Name
}

// IsRunning implements the SourceStateEvent interface for the LED manager.
func (e SourceStateChangedEvent) IsRunning() bool {
	return e.State == "running"
}

// CaptureRecoveryEvent is published when a capture loop recovers from a
// device fault without interrupting the session.
type CaptureRecoveryEvent struct {
	Name      string `json:"name" example:"studio-mic" doc:"Source name"`
	Kind      string `json:"kind" example:"overrun" doc:"Fault kind: overrun or suspend"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureRecoveryEvent.
func (e CaptureRecoveryEvent) Type() uint32 { return TypeCaptureRecovery }

// AudioLevelEvent carries periodic signal level measurements for a source.
type AudioLevelEvent struct {
	Name      string  `json:"name" example:"studio-mic" doc:"Source name"`
	Peak      float64 `json:"peak" example:"0.82" doc:"Peak amplitude in the window, 0..1"`
	RMS       float64 `json:"rms" example:"0.31" doc:"RMS amplitude in the window, 0..1"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for AudioLevelEvent.
func (e AudioLevelEvent) Type() uint32 { return TypeAudioLevel }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
