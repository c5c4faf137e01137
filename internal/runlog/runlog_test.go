package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesTranscript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	log, err := Open(dir, &console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	base := filepath.Base(log.Path())
	if !strings.HasPrefix(base, "tts_log_") || !strings.HasSuffix(base, ".txt") {
		t.Fatalf("unexpected transcript name %q", base)
	}
	if filepath.Dir(log.Path()) != dir {
		t.Fatalf("transcript created outside log dir: %s", log.Path())
	}
	if _, err := os.Stat(log.Path()); err != nil {
		t.Fatalf("transcript not on disk: %v", err)
	}
}

func TestBothSinksReceiveSameBytes(t *testing.T) {
	var console bytes.Buffer
	log, err := Open(t.TempDir(), &console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Printf("processing line %d: %s... ", 1, "hello")
	log.Printf("(%d chars)\n", 5)
	log.Println("output file:", "1_hello.wav")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := "processing line 1: hello... (5 chars)\noutput file: 1_hello.wav\n"
	if console.String() != want {
		t.Fatalf("console sink mismatch:\n got %q\nwant %q", console.String(), want)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(data) != want {
		t.Fatalf("file sink mismatch:\n got %q\nwant %q", string(data), want)
	}
}

func TestPrintfDoesNotAppendNewline(t *testing.T) {
	var console bytes.Buffer
	log, err := Open(t.TempDir(), &console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	log.Printf("no newline")
	if strings.Contains(console.String(), "\n") {
		t.Fatalf("Printf added a line break: %q", console.String())
	}
}
