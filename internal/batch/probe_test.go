package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mason-zhou/index-tts/internal/config"
	"github.com/mason-zhou/index-tts/internal/engine"
	"github.com/mason-zhou/index-tts/internal/runlog"
)

func newTestLog(t *testing.T) (*runlog.Log, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	log, err := runlog.Open(t.TempDir(), &console)
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log, &console
}

func TestProbeDurationReadsGeneratedWav(t *testing.T) {
	log, _ := newTestLog(t)

	path := filepath.Join(t.TempDir(), "probe.wav")
	synth := engine.NewMockSynth(config.Default().Engine)
	if err := synth.Synthesize(context.Background(), engine.Request{Text: "hello", OutputPath: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dur := probeDuration(path, log)
	want := 400 * time.Millisecond
	if diff := dur - want; diff < -50*time.Millisecond || diff > 50*time.Millisecond {
		t.Fatalf("expected about %v, got %v", want, dur)
	}
}

func TestProbeDurationMissingFile(t *testing.T) {
	log, console := newTestLog(t)

	dur := probeDuration(filepath.Join(t.TempDir(), "missing.wav"), log)
	if dur != 0 {
		t.Fatalf("expected zero duration, got %v", dur)
	}
	if !strings.Contains(console.String(), "warning: failed to read audio duration") {
		t.Fatalf("expected warning, got %q", console.String())
	}
}

func TestProbeDurationCorruptFile(t *testing.T) {
	log, console := newTestLog(t)

	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dur := probeDuration(path, log)
	if dur != 0 {
		t.Fatalf("expected zero duration, got %v", dur)
	}
	if !strings.Contains(console.String(), "warning:") {
		t.Fatalf("expected warning, got %q", console.String())
	}
}

func TestProbeDurationTruncatedHeader(t *testing.T) {
	log, console := newTestLog(t)

	// RIFF preamble with no chunks behind it.
	path := filepath.Join(t.TempDir(), "truncated.wav")
	if err := os.WriteFile(path, []byte{'R', 'I', 'F', 'F', 36, 0, 0, 0, 'W', 'A', 'V', 'E'}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dur := probeDuration(path, log)
	if dur != 0 {
		t.Fatalf("expected zero duration, got %v", dur)
	}
	if !strings.Contains(console.String(), "warning: failed to read audio duration") {
		t.Fatalf("expected warning, got %q", console.String())
	}
}

func TestProbeDurationEmptyAudioDoesNotWarn(t *testing.T) {
	log, console := newTestLog(t)

	path := filepath.Join(t.TempDir(), "empty.wav")
	synth := engine.NewMockSynth(config.Default().Engine)
	if err := synth.Synthesize(context.Background(), engine.Request{Text: "", OutputPath: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dur := probeDuration(path, log); dur > 50*time.Millisecond {
		t.Fatalf("expected near-zero duration, got %v", dur)
	}
	if strings.Contains(console.String(), "warning:") {
		t.Fatalf("unexpected warning: %q", console.String())
	}
}
