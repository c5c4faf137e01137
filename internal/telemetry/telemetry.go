// Package telemetry wires tracing and metrics for batch runs. Both are side
// channels: nothing here participates in the run log or report contract.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	"github.com/mason-zhou/index-tts/internal/config"
)

// Telemetry owns the OTel providers and the optional metrics endpoint for
// one run.
type Telemetry struct {
	logger        *slog.Logger
	traceShutdown func(context.Context) error
	meterProvider *sdkmetric.MeterProvider
	metricsServer *http.Server
	traceFile     *os.File
}

// Setup installs the global tracer and meter providers according to cfg.
// Tracing stays off unless enabled; traces go to an OTLP collector when an
// endpoint is configured and to a JSON file under logDir otherwise. Metrics
// are exposed only when a Prometheus bind address is set.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logDir, runID string, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("text2speech"),
			attribute.String("service.instance.id", runID),
		),
	)
	if err != nil {
		return nil, err
	}

	t := &Telemetry{logger: logger}

	if cfg.Enabled {
		if err := t.initTracer(ctx, cfg, logDir, res); err != nil {
			return nil, err
		}
	}
	if err := t.initMetrics(cfg, res); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Telemetry) initTracer(ctx context.Context, cfg config.TelemetryConfig, logDir string, res *resource.Resource) error {
	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		t.traceShutdown = tp.Shutdown
		t.logger.Info("tracing initialized", slog.String("exporter", "otlp"), slog.String("endpoint", endpoint))
		return nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("trace_%s.json", time.Now().Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file), stdouttrace.WithPrettyPrint())
	if err != nil {
		file.Close()
		return err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	t.traceShutdown = tp.Shutdown
	t.traceFile = file
	t.logger.Info("tracing initialized", slog.String("exporter", "file"), slog.String("path", path))
	return nil
}

func (t *Telemetry) initMetrics(cfg config.TelemetryConfig, res *resource.Resource) error {
	bind := strings.TrimSpace(cfg.PrometheusBind)
	if bind == "" {
		t.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		otel.SetMeterProvider(t.meterProvider)
		return nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(t.meterProvider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	t.metricsServer = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := t.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	t.logger.Info("metrics endpoint started", slog.String("addr", bind))
	return nil
}

// Shutdown flushes exporters and stops the metrics endpoint. Safe on every
// exit path, including after a failed run.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.metricsServer != nil {
		if err := t.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.traceShutdown != nil {
		if err := t.traceShutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.traceFile != nil {
		if err := t.traceFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
