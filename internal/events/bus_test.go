package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SourceCreatedEvent, 1)

	unsub := bus.Subscribe(func(e SourceCreatedEvent) {
		received <- e
	})
	defer unsub()

	event := SourceCreatedEvent{
		Name:      "studio-mic",
		Driver:    "alsa_capture",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Name != event.Name {
		t.Errorf("Expected name %s, got %s", event.Name, got.Name)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan SourceCreatedEvent, 1)
	received2 := make(chan SourceCreatedEvent, 1)

	unsub1 := bus.Subscribe(func(e SourceCreatedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e SourceCreatedEvent) {
		received2 <- e
	})
	defer unsub2()

	event := SourceCreatedEvent{
		Name:   "studio-mic",
		Driver: "alsa_capture",
	}
	bus.Publish(event)

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureRecoveryEvent, 1)

	unsub := bus.Subscribe(func(e CaptureRecoveryEvent) {
		received <- e
	})

	bus.Publish(CaptureRecoveryEvent{Name: "studio-mic", Kind: "overrun"})
	<-received

	unsub()

	bus.Publish(CaptureRecoveryEvent{Name: "studio-mic", Kind: "suspend"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	createdReceived := make(chan bool, 1)
	levelReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ SourceCreatedEvent) {
		createdReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ AudioLevelEvent) {
		levelReceived <- true
	})
	defer unsub2()

	// Publish SourceCreatedEvent
	bus.Publish(SourceCreatedEvent{Name: "studio-mic"})
	<-createdReceived

	select {
	case <-levelReceived:
		t.Fatal("Level subscriber should NOT have received SourceCreatedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	// Publish AudioLevelEvent
	bus.Publish(AudioLevelEvent{Name: "studio-mic", Peak: 0.5})
	<-levelReceived

	select {
	case <-createdReceived:
		t.Fatal("Created subscriber should NOT have received AudioLevelEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ AudioLevelEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(AudioLevelEvent{
					Name:      "studio-mic",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	// Read all expected events
	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"SourceCreated", SourceCreatedEvent{Name: "studio-mic"}},
		{"SourceUpdated", SourceUpdatedEvent{Name: "studio-mic", DeviceID: "hw:1,0"}},
		{"SourceDeleted", SourceDeletedEvent{Name: "studio-mic"}},
		{"SourceStateChanged", SourceStateChangedEvent{Name: "studio-mic", State: "running"}},
		{"CaptureRecovery", CaptureRecoveryEvent{Name: "studio-mic", Kind: "overrun"}},
		{"AudioLevel", AudioLevelEvent{Name: "studio-mic", Peak: 0.8}},
		{"LogEntry", LogEntryEvent{Level: "info", Message: "test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case SourceCreatedEvent:
				unsub = bus.Subscribe(func(e SourceCreatedEvent) { received <- e })
			case SourceUpdatedEvent:
				unsub = bus.Subscribe(func(e SourceUpdatedEvent) { received <- e })
			case SourceDeletedEvent:
				unsub = bus.Subscribe(func(e SourceDeletedEvent) { received <- e })
			case SourceStateChangedEvent:
				unsub = bus.Subscribe(func(e SourceStateChangedEvent) { received <- e })
			case CaptureRecoveryEvent:
				unsub = bus.Subscribe(func(e CaptureRecoveryEvent) { received <- e })
			case AudioLevelEvent:
				unsub = bus.Subscribe(func(e AudioLevelEvent) { received <- e })
			case LogEntryEvent:
				unsub = bus.Subscribe(func(e LogEntryEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestEventJSONSerialization(t *testing.T) {
	tests := []struct {
		name  string
		event any
	}{
		{
			"SourceCreatedEvent",
			SourceCreatedEvent{
				Name:      "studio-mic",
				Driver:    "alsa_capture",
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"SourceStateChangedEvent",
			SourceStateChangedEvent{
				Name:      "studio-mic",
				State:     "running",
				Rate:      48000,
				Channels:  2,
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"AudioLevelEvent",
			AudioLevelEvent{
				Name:      "studio-mic",
				Peak:      0.82,
				RMS:       0.31,
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}

			if len(result) == 0 {
				t.Fatal("Unmarshaled to empty object")
			}
		})
	}
}

func TestSourceStateChangedEvent_Interface(t *testing.T) {
	event := SourceStateChangedEvent{
		Name:      "studio-mic",
		State:     "running",
		Timestamp: "2025-01-27T10:30:00Z",
	}

	if event.GetSourceName() != "studio-mic" {
		t.Errorf("Expected name studio-mic, got %s", event.GetSourceName())
	}

	if !event.IsRunning() {
		t.Error("Expected running to be true")
	}

	stopped := SourceStateChangedEvent{Name: "studio-mic", State: "error"}
	if stopped.IsRunning() {
		t.Error("Expected running to be false for error state")
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[SourceCreatedEvent](bus, ch)
	defer unsub()

	event := SourceCreatedEvent{
		Name:   "studio-mic",
		Driver: "alsa_capture",
	}
	bus.Publish(event)

	received := <-ch
	createdEvent, ok := received.(SourceCreatedEvent)
	if !ok {
		t.Fatalf("Expected SourceCreatedEvent, got %T", received)
	}
	if createdEvent.Name != event.Name {
		t.Errorf("Expected name %s, got %s", event.Name, createdEvent.Name)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[SourceCreatedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(SourceCreatedEvent{Name: "studio-mic"})
		done <- true
	}()

	<-done // Should complete without blocking
}
