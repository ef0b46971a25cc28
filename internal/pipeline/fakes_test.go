package pipeline

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAudio builds a stereo buffer with both planes filled with a marker
// byte.
func testAudio(frames int, fill byte) source.Audio {
	planes := make([][]byte, 2)
	for i := range planes {
		planes[i] = make([]byte, frames*2)
		for j := range planes[i] {
			planes[i][j] = fill
		}
	}
	return source.Audio{
		Planes:    planes,
		Frames:    frames,
		Rate:      48000,
		Channels:  2,
		Format:    source.FormatS16LE,
		Timestamp: 12345,
	}
}

// planarS16 builds a buffer from per-channel sample values.
func planarS16(t *testing.T, channels ...[]int16) source.Audio {
	t.Helper()

	frames := len(channels[0])
	planes := make([][]byte, len(channels))
	for ch, samples := range channels {
		if len(samples) != frames {
			t.Fatalf("channel %d has %d samples, want %d", ch, len(samples), frames)
		}
		p := make([]byte, frames*2)
		for i, v := range samples {
			binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
		}
		planes[ch] = p
	}
	return source.Audio{
		Planes:   planes,
		Frames:   frames,
		Rate:     48000,
		Channels: len(channels),
		Format:   source.FormatS16LE,
	}
}

// recordingSink captures every buffer it receives.
type recordingSink struct {
	name string

	mu     sync.Mutex
	got    []source.Audio
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) WriteAudio(a source.Audio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, a)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) buffers() []source.Audio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]source.Audio(nil), s.got...)
}

func (s *recordingSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// flakySink fails its first write and records the rest.
type flakySink struct {
	recordingSink
	failed bool
}

func (s *flakySink) WriteAudio(a source.Audio) error {
	s.mu.Lock()
	if !s.failed {
		s.failed = true
		s.mu.Unlock()
		return errors.New("disk full")
	}
	s.mu.Unlock()
	return s.recordingSink.WriteAudio(a)
}

// blockingSink parks inside its first WriteAudio until released, so tests
// can fill the hub queue deterministically.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	count int
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) WriteAudio(source.Audio) error {
	s.mu.Lock()
	s.count++
	first := s.count == 1
	s.mu.Unlock()

	if first {
		s.entered <- struct{}{}
		<-s.release
	}
	return nil
}

func (s *blockingSink) Close() error { return nil }

func (s *blockingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// packetConn records datagrams written to it.
type packetConn struct {
	mu      sync.Mutex
	packets [][]byte
}

func (c *packetConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, append([]byte(nil), b...))
	return len(b), nil
}

func (c *packetConn) take() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.packets...)
}

func (c *packetConn) Read([]byte) (int, error) { return 0, io.EOF }

func (c *packetConn) Close() error { return nil }

func (c *packetConn) LocalAddr() net.Addr { return nil }

func (c *packetConn) RemoteAddr() net.Addr { return nil }

func (c *packetConn) SetDeadline(time.Time) error { return nil }

func (c *packetConn) SetReadDeadline(time.Time) error { return nil }

func (c *packetConn) SetWriteDeadline(time.Time) error { return nil }

// recordingBus collects published audio level events.
type recordingBus struct {
	mu     sync.Mutex
	levels []events.AudioLevelEvent
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := ev.(events.AudioLevelEvent); ok {
		b.levels = append(b.levels, e)
	}
}

func (b *recordingBus) take() []events.AudioLevelEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.AudioLevelEvent(nil), b.levels...)
}
