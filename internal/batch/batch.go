// Package batch drives a synthesis run end to end: it segments the input
// text into units, invokes the engine once per unit, measures timing and
// resulting audio length, and renders the processing report through the
// dual-sink run log.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mason-zhou/index-tts/internal/config"
	"github.com/mason-zhou/index-tts/internal/engine"
	"github.com/mason-zhou/index-tts/internal/runlog"
)

// FullTextLabel marks the single record produced in full text mode.
const FullTextLabel = "full_text"

// Record captures the outcome of one synthesis unit.
type Record struct {
	Label         string
	CharCount     int
	Elapsed       time.Duration
	AudioDuration time.Duration
}

// Run accumulates the state of one batch execution. It is written by a
// single goroutine and discarded when the process exits; the rendered report
// and the run log are the only persistent outputs.
type Run struct {
	Records    []Record
	TotalChars int
	Started    time.Time
	Finished   time.Time
}

// TotalAudio sums the probed audio duration across all records.
func (r *Run) TotalAudio() time.Duration {
	var total time.Duration
	for _, rec := range r.Records {
		total += rec.AudioDuration
	}
	return total
}

// TotalElapsed is the wall-clock span of the whole run.
func (r *Run) TotalElapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Processor owns one batch run. Units are processed strictly in order; unit
// N+1 starts only after unit N's synthesis call has returned.
type Processor struct {
	cfg    config.Config
	synth  engine.Synthesizer
	log    *runlog.Log
	logger *slog.Logger
	names  namer
	clock  func() time.Time
	tracer trace.Tracer
	meter  metric.Meter

	unitCounter  metric.Int64Counter
	charCounter  metric.Int64Counter
	synthSeconds metric.Float64Histogram
	audioSeconds metric.Float64Counter
}

func New(cfg config.Config, synth engine.Synthesizer, log *runlog.Log, logger *slog.Logger) *Processor {
	p := &Processor{
		cfg:    cfg,
		synth:  synth,
		log:    log,
		logger: logger.With(slog.String("component", "batch")),
		names:  namer{dir: cfg.OutputDir, now: time.Now},
		clock:  time.Now,
		tracer: otel.Tracer("github.com/mason-zhou/index-tts/internal/batch"),
		meter:  otel.Meter("github.com/mason-zhou/index-tts/internal/batch"),
	}
	if err := p.initMetrics(); err != nil {
		p.logger.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}
	return p
}

// Process runs the whole batch and returns the accumulated run. A synthesis
// failure aborts the run before the report is rendered; everything written up
// to that point is already in the log.
func (p *Processor) Process(ctx context.Context) (*Run, error) {
	run := &Run{Started: p.clock()}

	p.log.Printf("=== TTS batch processing started === time: %s\n", run.Started.Format("2006-01-02 15:04:05"))
	p.log.Printf("input file: %s\n", resolvePath(p.cfg.Input))
	p.log.Printf("output directory: %s\n", resolvePath(p.cfg.OutputDir))
	p.log.Printf("log file: %s\n", resolvePath(p.log.Path()))
	p.log.Println()

	var err error
	switch p.cfg.Mode {
	case config.ModeFull:
		err = p.processFullText(ctx, run)
	default:
		err = p.processLines(ctx, run)
	}
	if err != nil {
		return nil, err
	}

	run.Finished = p.clock()
	p.renderReport(run)
	return run, nil
}

func (p *Processor) processLines(ctx context.Context, run *Run) error {
	p.log.Println("mode: per-line (one audio file per line)")
	p.log.Println()

	file, err := os.Open(p.cfg.Input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	// Lines have no length limit. The final line may arrive with io.EOF.
	reader := bufio.NewReader(file)
	processed := 0
	for {
		line, readErr := reader.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			ordinal := p.cfg.StartLine + processed
			name, path := p.names.lineFile(ordinal, text)
			rec, err := p.processUnit(ctx, strconv.Itoa(ordinal), text, name, path)
			if err != nil {
				return err
			}
			run.Records = append(run.Records, rec)
			run.TotalChars += rec.CharCount
			processed++
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input file: %w", readErr)
		}
	}
}

func (p *Processor) processFullText(ctx context.Context, run *Run) error {
	p.log.Println("mode: full text (single audio file)")
	p.log.Println()

	file, err := os.Open(p.cfg.Input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	var lines []string
	reader := bufio.NewReader(file)
	for {
		line, readErr := reader.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			lines = append(lines, text)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				return fmt.Errorf("read input file: %w", readErr)
			}
			break
		}
	}

	fullText := strings.Join(lines, " ")
	if fullText == "" {
		p.log.Println("warning: input file is empty, no audio generated")
		return nil
	}

	name, path := p.names.fullTextFile(fullText)
	rec, err := p.processUnit(ctx, FullTextLabel, fullText, name, path)
	if err != nil {
		return err
	}
	run.Records = append(run.Records, rec)
	run.TotalChars += rec.CharCount
	return nil
}

// processUnit drives one synthesis call: progress lines, the timed engine
// invocation, the duration probe, and the completion line. Engine failures
// propagate to the caller; nothing here retries.
func (p *Processor) processUnit(ctx context.Context, label, text, name, path string) (Record, error) {
	charCount := utf8.RuneCountInString(text)

	if label == FullTextLabel {
		p.log.Printf("processing full text: %s... (%d chars)\n", firstRunes(text, 50), charCount)
	} else {
		p.log.Printf("processing line %s: %s... (%d chars)\n", label, firstRunes(text, 50), charCount)
	}
	p.log.Printf("output file: %s\n", name)

	ctx, span := p.tracer.Start(ctx, "tts.synthesize", trace.WithAttributes(
		attribute.String("tts.unit", label),
		attribute.Int("tts.chars", charCount),
	))
	started := p.clock()
	err := p.synth.Synthesize(ctx, engine.Request{Speaker: p.cfg.Speaker, Text: text, OutputPath: path})
	elapsed := p.clock().Sub(started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		span.End()
		return Record{}, fmt.Errorf("synthesize unit %s: %w", label, err)
	}
	span.End()

	rec := Record{
		Label:         label,
		CharCount:     charCount,
		Elapsed:       elapsed,
		AudioDuration: probeDuration(path, p.log),
	}
	p.log.Printf("completed: %s in %.2f s\n\n", name, elapsed.Seconds())
	p.recordMetrics(ctx, rec)
	return rec, nil
}

func (p *Processor) initMetrics() error {
	units, err := p.meter.Int64Counter("tts.batch.units", metric.WithDescription("Processed synthesis units"))
	if err != nil {
		return err
	}
	chars, err := p.meter.Int64Counter("tts.batch.chars", metric.WithDescription("Characters submitted for synthesis"))
	if err != nil {
		return err
	}
	synthSeconds, err := p.meter.Float64Histogram("tts.synthesis.seconds", metric.WithDescription("Wall-clock seconds per synthesis call"))
	if err != nil {
		return err
	}
	audioSeconds, err := p.meter.Float64Counter("tts.audio.seconds", metric.WithDescription("Seconds of audio produced"))
	if err != nil {
		return err
	}
	p.unitCounter = units
	p.charCounter = chars
	p.synthSeconds = synthSeconds
	p.audioSeconds = audioSeconds
	return nil
}

func (p *Processor) recordMetrics(ctx context.Context, rec Record) {
	if p.unitCounter == nil {
		return
	}
	p.unitCounter.Add(ctx, 1)
	p.charCounter.Add(ctx, int64(rec.CharCount))
	p.synthSeconds.Record(ctx, rec.Elapsed.Seconds())
	p.audioSeconds.Add(ctx, rec.AudioDuration.Seconds())
}

func resolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
