package engine

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mason-zhou/index-tts/internal/config"
)

// mockSynth writes silent audio sized to the input text. It stands in for a
// real engine in tests and dry runs.
type mockSynth struct {
	sampleRate int
	channels   int
}

func NewMockSynth(cfg config.EngineConfig) Synthesizer {
	return &mockSynth{sampleRate: cfg.SampleRate, channels: cfg.Channels}
}

func (m *mockSynth) Synthesize(ctx context.Context, req Request) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}

	// 80 ms of silence per input rune.
	frames := utf8.RuneCountInString(req.Text) * m.sampleRate * 80 / 1000
	buffer := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: m.channels, SampleRate: m.sampleRate},
		Data:   make([]int, frames*m.channels),
	}

	file, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	enc := wav.NewEncoder(file, m.sampleRate, 16, m.channels, 1)
	if err := enc.Write(buffer); err != nil {
		file.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return file.Close()
}
