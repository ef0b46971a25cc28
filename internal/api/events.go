package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/audionode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	// Register SSE endpoint with event type mapping
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for source lifecycle, capture recovery, and audio level updates",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"source-created":       events.SourceCreatedEvent{},
		"source-updated":       events.SourceUpdatedEvent{},
		"source-deleted":       events.SourceDeletedEvent{},
		"source-state-changed": events.SourceStateChangedEvent{},
		"capture-recovery":     events.CaptureRecoveryEvent{},
		"audio-level":          events.AudioLevelEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.SourceCreatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SourceUpdatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SourceDeletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SourceStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CaptureRecoveryEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.AudioLevelEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send initial connection confirmation
		if err := send.Data(events.SourceStateChangedEvent{
			Name:      "system",
			State:     "connected",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				// Send event using Huma's SSE sender with error handling
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
