package batch

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mason-zhou/index-tts/internal/engine"
)

func TestReportGeometry(t *testing.T) {
	cfg := testConfig(t, "Hello world.\nGoodbye.\n")
	p, console := newTestProcessor(t, cfg, engine.NewMockSynth(cfg.Engine))

	if _, err := p.Process(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(console.String(), "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "====") {
			start = i
			break
		}
	}
	if start < 0 {
		t.Fatalf("report rule not found in output:\n%s", console.String())
	}

	// rule, title, rule, header, divider, two rows, divider, totals, rule
	for off := 0; off < 10; off++ {
		line := lines[start+off]
		if utf8.RuneCountInString(line) != reportWidth {
			t.Fatalf("report line %d is %d cells wide: %q", off, utf8.RuneCountInString(line), line)
		}
	}
	if strings.TrimSpace(lines[start+1]) != "Processing Report" {
		t.Fatalf("unexpected title row %q", lines[start+1])
	}
	header := lines[start+3]
	for _, col := range []string{"line", "chars", "audio (s)", "elapsed (s)", "char ratio", "time ratio"} {
		if !strings.Contains(header, col) {
			t.Fatalf("header missing column %q: %q", col, header)
		}
	}
}

func TestTotalsRowUsesWallClockElapsed(t *testing.T) {
	cfg := testConfig(t, "Hello world.\n")
	p, console := newTestProcessor(t, cfg, noopSynth{})

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	p.clock = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * time.Second)
	}

	run, err := p.Process(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Records[0].Elapsed != time.Second {
		t.Fatalf("expected 1s unit elapsed, got %v", run.Records[0].Elapsed)
	}
	if run.TotalElapsed() != 3*time.Second {
		t.Fatalf("expected 3s wall clock, got %v", run.TotalElapsed())
	}

	var totals string
	for _, line := range strings.Split(console.String(), "\n") {
		if strings.HasPrefix(line, "total") {
			totals = line
			break
		}
	}
	if totals == "" {
		t.Fatalf("totals row not found in output:\n%s", console.String())
	}
	if !strings.Contains(totals, "3.00") {
		t.Fatalf("expected wall-clock elapsed in totals row, got %q", totals)
	}
}

func TestReportRowZeroGuards(t *testing.T) {
	row := reportRow("7", 0, 0, 2*time.Second)
	if utf8.RuneCountInString(row) != reportWidth {
		t.Fatalf("row is %d cells wide: %q", utf8.RuneCountInString(row), row)
	}

	fields := strings.Fields(row)
	if len(fields) != 6 {
		t.Fatalf("expected 6 columns, got %v", fields)
	}
	if fields[4] != "0.00" || fields[5] != "0.00" {
		t.Fatalf("expected zero ratios, got %v", fields)
	}
}

func TestCenterPutsExtraCellRight(t *testing.T) {
	if got := center("ab", 5); got != " ab  " {
		t.Fatalf("expected %q, got %q", " ab  ", got)
	}
	if got := center("Processing Report", reportWidth); utf8.RuneCountInString(got) != reportWidth {
		t.Fatalf("centered title is %d cells wide", utf8.RuneCountInString(got))
	}
	if got := center("too wide for the cell", 5); got != "too wide for the cell" {
		t.Fatalf("oversized text must pass through, got %q", got)
	}
}
