package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mason-zhou/index-tts/internal/batch"
	"github.com/mason-zhou/index-tts/internal/config"
	"github.com/mason-zhou/index-tts/internal/engine"
	"github.com/mason-zhou/index-tts/internal/runlog"
	"github.com/mason-zhou/index-tts/internal/telemetry"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "text2speech.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Telemetry.LogLevel),
	})).With(slog.String("run_id", runID))

	if err := run(cfg, runID, logger); err != nil {
		logger.Error("batch run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run keeps the fatal path behind a single os.Exit so deferred cleanup,
// telemetry flushes included, always executes.
func run(cfg config.Config, runID string, logger *slog.Logger) error {
	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.LogDir, runID, logger)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	synth, err := engine.New(cfg.Engine)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	log, err := runlog.Open(cfg.LogDir, os.Stdout)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer func() {
		if err := log.Close(); err != nil {
			logger.Error("run log close error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("starting batch",
		slog.String("input", cfg.Input),
		slog.String("mode", cfg.Mode),
		slog.String("engine", cfg.Engine.Mode))

	result, err := batch.New(cfg, synth, log, logger).Process(ctx)
	if err != nil {
		return err
	}

	logger.Info("batch finished",
		slog.Int("units", len(result.Records)),
		slog.Int("chars", result.TotalChars),
		slog.Duration("elapsed", result.TotalElapsed()))
	return nil
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
