// Package pipeline fans captured audio out to attached sinks.
package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"

	"github.com/smazurov/audionode/internal/metrics"
	"github.com/smazurov/audionode/internal/source"
)

// Hub errors.
var (
	ErrSinkExists   = errors.New("sink already attached")
	ErrSinkNotFound = errors.New("sink not found")
	ErrHubClosed    = errors.New("pipeline hub closed")
)

// queueDepth bounds each sink queue. A slow sink drops buffers instead of
// stalling capture delivery.
const queueDepth = 16

// Sink consumes audio buffers from a hub. WriteAudio runs on a dedicated
// goroutine per sink; the planes are shared between sinks and must be
// treated as read-only.
type Sink interface {
	Name() string
	WriteAudio(source.Audio) error
	Close() error
}

// Hub routes captured audio to attached sinks. It implements source.Output
// and copies each buffer once, so the capture loop is free to reuse its
// planes after delivery returns.
type Hub struct {
	source string
	logger *slog.Logger

	mu     sync.RWMutex
	sinks  map[string]*sinkWorker
	closed bool
}

type sinkWorker struct {
	sink Sink
	ch   chan source.Audio
	done chan struct{}
}

// NewHub creates a hub for the named source.
func NewHub(sourceName string, logger *slog.Logger) *Hub {
	return &Hub{
		source: sourceName,
		logger: logger,
		sinks:  make(map[string]*sinkWorker),
	}
}

// Attach registers a sink and starts its delivery goroutine.
func (h *Hub) Attach(s Sink) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.sinks[s.Name()]; ok {
		return ErrSinkExists
	}

	w := &sinkWorker{
		sink: s,
		ch:   make(chan source.Audio, queueDepth),
		done: make(chan struct{}),
	}
	h.sinks[s.Name()] = w
	go h.deliver(w)

	h.logger.Info("Sink attached", "sink", s.Name())
	return nil
}

// Detach removes a sink, drains its queue and closes it.
func (h *Hub) Detach(name string) error {
	h.mu.Lock()
	w, ok := h.sinks[name]
	if ok {
		delete(h.sinks, name)
	}
	h.mu.Unlock()

	if !ok {
		return ErrSinkNotFound
	}

	// Close the queue after unlock; writers can no longer see the worker.
	close(w.ch)
	<-w.done

	err := w.sink.Close()
	h.logger.Info("Sink detached", "sink", name)
	return err
}

// Names returns the attached sink names.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sinks))
	for name := range h.sinks {
		names = append(names, name)
	}
	return names
}

// OutputAudio implements source.Output. The buffer is copied once and the
// copy is queued to every sink; a full queue drops instead of blocking.
func (h *Hub) OutputAudio(a source.Audio) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	if len(h.sinks) == 0 {
		return nil
	}

	buf := cloneAudio(a)
	for name, w := range h.sinks {
		select {
		case w.ch <- buf:
		default:
			metrics.IncrementSinkDrops(h.source, name)
		}
	}
	return nil
}

// Close detaches all sinks and rejects further audio.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	workers := h.sinks
	h.sinks = make(map[string]*sinkWorker)
	h.mu.Unlock()

	for name, w := range workers {
		close(w.ch)
		<-w.done
		if err := w.sink.Close(); err != nil {
			h.logger.Warn("Failed to close sink", "sink", name, "error", err)
		}
	}
	h.logger.Info("Pipeline hub closed")
}

func (h *Hub) deliver(w *sinkWorker) {
	defer close(w.done)

	for a := range w.ch {
		if err := w.sink.WriteAudio(a); err != nil {
			metrics.IncrementSinkErrors(h.source, w.sink.Name())
			h.logger.Warn("Sink write failed", "sink", w.sink.Name(), "error", err)
			continue
		}
		metrics.IncrementSinkWrites(h.source, w.sink.Name())
	}
}

func cloneAudio(a source.Audio) source.Audio {
	out := a
	out.Planes = make([][]byte, len(a.Planes))
	for i, p := range a.Planes {
		out.Planes[i] = bytes.Clone(p)
	}
	return out
}
