package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/mason-zhou/index-tts/internal/config"
)

// openaiSynth renders units through the OpenAI speech API. Cloud voices are
// named rather than cloned, so the speaker reference does not apply here.
type openaiSynth struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISynth(cfg config.EngineConfig) (Synthesizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	return &openaiSynth{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		voice:  voice,
	}, nil
}

func (o *openaiSynth) Synthesize(ctx context.Context, req Request) error {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Close()

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		return fmt.Errorf("write audio response: %w", err)
	}
	return out.Close()
}
