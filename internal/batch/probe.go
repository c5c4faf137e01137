package batch

import (
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/mason-zhou/index-tts/internal/runlog"
)

// probeDuration reads the playable length of a finished artifact. Probing is
// advisory: any failure is logged as a warning and counts as zero duration.
func probeDuration(path string, log *runlog.Log) time.Duration {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("warning: failed to read audio duration of %s: %v\n", path, err)
		return 0
	}
	defer file.Close()

	// A bad header surfaces through Err, not through Duration.
	dec := wav.NewDecoder(file)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		log.Printf("warning: failed to read audio duration of %s: %v\n", path, err)
		return 0
	}
	if dec.AvgBytesPerSec == 0 {
		log.Printf("warning: failed to read audio duration of %s: malformed wav header\n", path)
		return 0
	}

	dur, err := dec.Duration()
	if err != nil {
		log.Printf("warning: failed to read audio duration of %s: %v\n", path, err)
		return 0
	}
	return dur
}
