package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Processing modes.
const (
	ModeLine = "line"
	ModeFull = "full"
)

// Engine backends.
const (
	EngineMock   = "mock"
	EngineExec   = "exec"
	EngineHTTP   = "http"
	EngineOpenAI = "openai"
)

type Config struct {
	Input     string          `yaml:"input"`
	OutputDir string          `yaml:"output_dir"`
	LogDir    string          `yaml:"log_dir"`
	Speaker   string          `yaml:"speaker"`
	Mode      string          `yaml:"mode"`
	StartLine int             `yaml:"start_line"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type EngineConfig struct {
	Mode          string `yaml:"mode"`
	Command       string `yaml:"command"`
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	Voice         string `yaml:"voice"`
	ConfigPath    string `yaml:"config_path"`
	ModelDir      string `yaml:"model_dir"`
	SampleRate    int    `yaml:"sample_rate"`
	Channels      int    `yaml:"channels"`
	UseFP16       bool   `yaml:"use_fp16"`
	UseCUDAKernel bool   `yaml:"use_cuda_kernel"`
	UseDeepSpeed  bool   `yaml:"use_deepspeed"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	Enabled        bool   `yaml:"enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

func Default() Config {
	return Config{
		Input:     "input.txt",
		OutputDir: "outputs",
		LogDir:    "logs",
		Mode:      ModeLine,
		StartLine: 1,
		Engine: EngineConfig{
			Mode:       EngineMock,
			SampleRate: 22050,
			Channels:   1,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPInsecure: true,
		},
	}
}

// Load reads the optional YAML file at path, applies INDEXTTS_* environment
// overrides, and validates the result. A missing file is not an error; the
// defaults then apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults plus environment only
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Input, "INDEXTTS_INPUT")
	overrideString(&cfg.OutputDir, "INDEXTTS_OUTPUT_DIR")
	overrideString(&cfg.LogDir, "INDEXTTS_LOG_DIR")
	overrideString(&cfg.Speaker, "INDEXTTS_SPEAKER")
	overrideString(&cfg.Mode, "INDEXTTS_MODE")
	overrideInt(&cfg.StartLine, "INDEXTTS_START_LINE")
	overrideString(&cfg.Engine.Mode, "INDEXTTS_ENGINE_MODE")
	overrideString(&cfg.Engine.Command, "INDEXTTS_ENGINE_COMMAND")
	overrideString(&cfg.Engine.Endpoint, "INDEXTTS_ENGINE_ENDPOINT")
	overrideString(&cfg.Engine.Model, "INDEXTTS_ENGINE_MODEL")
	overrideString(&cfg.Engine.Voice, "INDEXTTS_ENGINE_VOICE")
	overrideString(&cfg.Engine.ConfigPath, "INDEXTTS_ENGINE_CONFIG_PATH")
	overrideString(&cfg.Engine.ModelDir, "INDEXTTS_ENGINE_MODEL_DIR")
	overrideInt(&cfg.Engine.SampleRate, "INDEXTTS_ENGINE_SAMPLE_RATE")
	overrideInt(&cfg.Engine.Channels, "INDEXTTS_ENGINE_CHANNELS")
	overrideBool(&cfg.Engine.UseFP16, "INDEXTTS_ENGINE_USE_FP16")
	overrideBool(&cfg.Engine.UseCUDAKernel, "INDEXTTS_ENGINE_USE_CUDA_KERNEL")
	overrideBool(&cfg.Engine.UseDeepSpeed, "INDEXTTS_ENGINE_USE_DEEPSPEED")
	overrideString(&cfg.Telemetry.LogLevel, "INDEXTTS_TELEMETRY_LOG_LEVEL")
	overrideBool(&cfg.Telemetry.Enabled, "INDEXTTS_TELEMETRY_ENABLED")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "INDEXTTS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "INDEXTTS_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "INDEXTTS_TELEMETRY_PROMETHEUS_BIND")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.Input == "" {
		return errors.New("input must not be empty")
	}
	if cfg.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if cfg.LogDir == "" {
		return errors.New("log_dir must not be empty")
	}
	switch cfg.Mode {
	case ModeLine, ModeFull:
		// ok
	default:
		return errors.New("mode must be one of line|full")
	}
	if cfg.StartLine < 1 {
		return errors.New("start_line must be >= 1")
	}
	switch cfg.Engine.Mode {
	case EngineMock, EngineExec, EngineHTTP, EngineOpenAI:
		// ok
	default:
		return errors.New("engine.mode must be one of mock|exec|http|openai")
	}
	if cfg.Engine.Mode == EngineExec && cfg.Engine.Command == "" {
		return errors.New("engine.command must be set when mode=exec")
	}
	if cfg.Engine.Mode == EngineHTTP && cfg.Engine.Endpoint == "" {
		return errors.New("engine.endpoint must be set when mode=http")
	}
	if cfg.Engine.SampleRate <= 0 {
		return errors.New("engine.sample_rate must be positive")
	}
	if cfg.Engine.Channels <= 0 {
		return errors.New("engine.channels must be positive")
	}
	return nil
}
