// Package engine abstracts the text-to-speech backends the batch driver can
// run against. Every backend honors one contract: synthesize the request text
// and leave a playable WAV artifact at the requested path.
package engine

import (
	"context"
	"fmt"

	"github.com/mason-zhou/index-tts/internal/config"
)

// Request describes one synthesis unit.
type Request struct {
	// Speaker is a reference sample path for voice cloning backends. May be
	// empty.
	Speaker string
	// Text is the unit to synthesize.
	Text string
	// OutputPath is where the backend must leave the WAV artifact.
	OutputPath string
}

// Synthesizer renders one request into one audio artifact. Calls are issued
// sequentially and never retried.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) error
}

// New builds the backend selected by cfg.Mode.
func New(cfg config.EngineConfig) (Synthesizer, error) {
	switch cfg.Mode {
	case config.EngineMock:
		return NewMockSynth(cfg), nil
	case config.EngineExec:
		return NewExecSynth(cfg)
	case config.EngineHTTP:
		return NewHTTPSynth(cfg), nil
	case config.EngineOpenAI:
		return NewOpenAISynth(cfg)
	default:
		return nil, fmt.Errorf("unknown engine mode %q", cfg.Mode)
	}
}
