package batch

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Report columns are left-justified with fixed widths; together they form a
// 99 cell rule.
const (
	colLabel     = 12
	colChars     = 15
	colAudio     = 20
	colElapsed   = 20
	colCharRatio = 16
	colTimeRatio = 16

	reportWidth = colLabel + colChars + colAudio + colElapsed + colCharRatio + colTimeRatio
)

// renderReport writes the fixed-width processing table and the closing
// summary through the dual-sink run log.
func (p *Processor) renderReport(run *Run) {
	rule := strings.Repeat("=", reportWidth)
	divider := strings.Repeat("-", reportWidth)

	p.log.Println(rule)
	p.log.Println(center("Processing Report", reportWidth))
	p.log.Println(rule)
	p.log.Println(fmt.Sprintf("%-*s%-*s%-*s%-*s%-*s%-*s",
		colLabel, "line", colChars, "chars", colAudio, "audio (s)",
		colElapsed, "elapsed (s)", colCharRatio, "char ratio", colTimeRatio, "time ratio"))
	p.log.Println(divider)

	for _, rec := range run.Records {
		p.log.Println(reportRow(rec.Label, rec.CharCount, rec.AudioDuration, rec.Elapsed))
	}

	p.log.Println(divider)
	totalElapsed := run.TotalElapsed()
	p.log.Println(reportRow("total", run.TotalChars, run.TotalAudio(), totalElapsed))
	p.log.Println(rule)

	p.log.Println()
	minutes := int(totalElapsed.Minutes())
	seconds := int(totalElapsed.Seconds()) % 60
	p.log.Printf("all audio files generated: %d characters in %d min %d s\n", run.TotalChars, minutes, seconds)
	p.log.Printf("=== TTS batch processing finished === time: %s\n", run.Finished.Format("2006-01-02 15:04:05"))
	p.log.Println()
}

// reportRow formats one table row. Ratios divide elapsed time by character
// count and audio length; a zero denominator yields 0.00 rather than a
// failure.
func reportRow(label string, chars int, audio, elapsed time.Duration) string {
	charRatio := 0.0
	if chars > 0 {
		charRatio = elapsed.Seconds() / float64(chars)
	}
	timeRatio := 0.0
	if audio > 0 {
		timeRatio = elapsed.Seconds() / audio.Seconds()
	}
	return fmt.Sprintf("%-*s%-*d%-*.2f%-*.2f%-*.2f%-*.2f",
		colLabel, label, colChars, chars, colAudio, audio.Seconds(),
		colElapsed, elapsed.Seconds(), colCharRatio, charRatio, colTimeRatio, timeRatio)
}

// center pads s to width cells; odd padding leaves the extra cell on the
// right.
func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
