package pipeline

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/smazurov/audionode/internal/source"
)

// WAVSink writes captured audio to a PCM WAV file.
type WAVSink struct {
	file    *os.File
	enc     *wav.Encoder
	scratch []int
	frames  atomic.Uint64
}

// NewWAVSink creates the output file and its encoder. The sink accepts
// 16-bit little-endian buffers only.
func NewWAVSink(path string, rate, channels int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	// Audio format 1 is PCM.
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	return &WAVSink{file: f, enc: enc}, nil
}

// Name implements Sink.
func (s *WAVSink) Name() string { return "wav" }

// WriteAudio interleaves the channel planes and appends them to the file.
func (s *WAVSink) WriteAudio(a source.Audio) error {
	if a.Format != source.FormatS16LE {
		return fmt.Errorf("unsupported sample format %s", a.Format)
	}

	samples := a.Frames * a.Channels
	if cap(s.scratch) < samples {
		s.scratch = make([]int, samples)
	}
	data := s.scratch[:samples]

	for frame := range a.Frames {
		for ch := range a.Channels {
			v := int16(binary.LittleEndian.Uint16(a.Planes[ch][frame*2:]))
			data[frame*a.Channels+ch] = int(v)
		}
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: a.Channels,
			SampleRate:  a.Rate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := s.enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	s.frames.Add(uint64(a.Frames))
	return nil
}

// FramesWritten reports the number of frames encoded so far.
func (s *WAVSink) FramesWritten() uint64 { return s.frames.Load() }

// Close finalizes the WAV header and closes the file.
func (s *WAVSink) Close() error {
	encErr := s.enc.Close()
	fileErr := s.file.Close()
	if encErr != nil {
		return fmt.Errorf("finalize wav: %w", encErr)
	}
	return fileErr
}
