package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Characters that are unsafe in file names on common filesystems.
const invalidFilenameChars = `<>:"/\|?*`

// sanitizeFilename drops unsafe characters and trims surrounding whitespace.
// Applying it twice yields the same result as applying it once.
func sanitizeFilename(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

// firstRunes returns the first n runes of s.
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

// namer derives artifact names inside the output directory. The clock is a
// field so whole-text names are deterministic under test.
type namer struct {
	dir string
	now func() time.Time
}

// lineFile names a per-line artifact from its ordinal and a sanitized prefix
// of the line text. The ordinal keeps names distinct across lines that share
// a prefix.
func (n namer) lineFile(ordinal int, text string) (string, string) {
	name := fmt.Sprintf("%d_%s.wav", ordinal, sanitizeFilename(firstRunes(text, 10)))
	return name, filepath.Join(n.dir, name)
}

// fullTextFile names the single whole-text artifact. The timestamp keeps
// names from colliding with earlier runs against the same output directory.
func (n namer) fullTextFile(text string) (string, string) {
	stamp := n.now().Format("20060102_150405")
	name := fmt.Sprintf("full_text_%s_%s.wav", stamp, sanitizeFilename(firstRunes(text, 10)))
	return name, filepath.Join(n.dir, name)
}
