package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/mason-zhou/index-tts/internal/config"
)

// execSynth shells out to a local engine once per unit. The subprocess reads
// a JSON request on stdin, writes the artifact itself, and exits zero.
type execSynth struct {
	cmd []string
	cfg config.EngineConfig
	mu  sync.Mutex
}

type execRequest struct {
	Text          string `json:"text"`
	Speaker       string `json:"speaker,omitempty"`
	OutputPath    string `json:"output_path"`
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ConfigPath    string `json:"config_path,omitempty"`
	ModelDir      string `json:"model_dir,omitempty"`
	UseFP16       bool   `json:"use_fp16"`
	UseCUDAKernel bool   `json:"use_cuda_kernel"`
	UseDeepSpeed  bool   `json:"use_deepspeed"`
}

func NewExecSynth(cfg config.EngineConfig) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command empty")
	}
	return &execSynth{cmd: args, cfg: cfg}, nil
}

func (e *execSynth) Synthesize(ctx context.Context, req Request) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := execRequest{
		Text:          req.Text,
		Speaker:       req.Speaker,
		OutputPath:    req.OutputPath,
		SampleRate:    e.cfg.SampleRate,
		Channels:      e.cfg.Channels,
		ConfigPath:    e.cfg.ConfigPath,
		ModelDir:      e.cfg.ModelDir,
		UseFP16:       e.cfg.UseFP16,
		UseCUDAKernel: e.cfg.UseCUDAKernel,
		UseDeepSpeed:  e.cfg.UseDeepSpeed,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	command := exec.CommandContext(ctx, base, args...)
	command.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("engine command failed: %w: %s", err, stderr.String())
	}
	return nil
}
