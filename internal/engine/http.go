package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mason-zhou/index-tts/internal/config"
)

// httpSynth posts each unit to a synthesis endpoint and stores the returned
// audio bytes at the requested path.
type httpSynth struct {
	cfg config.EngineConfig
}

type httpRequest struct {
	Text          string `json:"text"`
	Speaker       string `json:"speaker,omitempty"`
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ConfigPath    string `json:"config_path,omitempty"`
	ModelDir      string `json:"model_dir,omitempty"`
	UseFP16       bool   `json:"use_fp16"`
	UseCUDAKernel bool   `json:"use_cuda_kernel"`
	UseDeepSpeed  bool   `json:"use_deepspeed"`
}

func NewHTTPSynth(cfg config.EngineConfig) Synthesizer {
	return &httpSynth{cfg: cfg}
}

func (h *httpSynth) Synthesize(ctx context.Context, req Request) error {
	payload := httpRequest{
		Text:          req.Text,
		Speaker:       req.Speaker,
		SampleRate:    h.cfg.SampleRate,
		Channels:      h.cfg.Channels,
		ConfigPath:    h.cfg.ConfigPath,
		ModelDir:      h.cfg.ModelDir,
		UseFP16:       h.cfg.UseFP16,
		UseCUDAKernel: h.cfg.UseCUDAKernel,
		UseDeepSpeed:  h.cfg.UseDeepSpeed,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("synthesis endpoint returned status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("write audio response: %w", err)
	}
	return out.Close()
}
