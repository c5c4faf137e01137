// Package runlog mirrors run output to the console and to a timestamped
// transcript file, so every progress line and report survives the process.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Log fans every write out to a console writer and a per-run log file.
type Log struct {
	console io.Writer
	file    *os.File
	path    string
}

// Open creates dir if needed and starts a fresh transcript named after the
// wall-clock start of the run.
func Open(dir string, console io.Writer) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("tts_log_%s.txt", time.Now().Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return &Log{console: console, file: file, path: path}, nil
}

// Printf writes the formatted message verbatim to both sinks. No newline is
// appended; callers control line breaks.
func (l *Log) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	io.WriteString(l.console, msg)
	io.WriteString(l.file, msg)
}

// Println writes the message to both sinks and terminates the line.
func (l *Log) Println(args ...any) {
	fmt.Fprintln(l.console, args...)
	fmt.Fprintln(l.file, args...)
}

// Path reports where the transcript lives.
func (l *Log) Path() string {
	return l.path
}

// Close closes the transcript file. The console writer is left open.
func (l *Log) Close() error {
	return l.file.Close()
}
