package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/mason-zhou/index-tts/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSetupDisabledTracingShutsDownCleanly(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{}, t.TempDir(), "run-1", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	var none *Telemetry
	if err := none.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
}

func TestSetupWritesTraceFile(t *testing.T) {
	logDir := t.TempDir()
	tel, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true}, logDir, "run-2", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "demo-span")
	span.End()

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(logDir, "trace_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one trace file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read trace file: %v", err)
	}
	if !strings.Contains(string(data), "demo-span") {
		t.Fatalf("trace file missing span: %s", data)
	}
}
