package cnab

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Sequencer hands out monotonic CNAB file base names ("CNAB0001", "CNAB0002",
// ...) backed by a counter file, so names stay unique across process runs.
// The counter file is a single-writer resource; the mutex covers concurrent
// conversions within one process, the host must not run two processes against
// the same counter file.
type Sequencer struct {
	mu   sync.Mutex
	path string
}

// NewSequencer creates a sequencer backed by the counter file at path. The
// file is created on first use; a missing or empty file counts as zero.
func NewSequencer(path string) *Sequencer {
	return &Sequencer{path: path}
}

// Next increments the counter and returns the next 8-character base name.
func (s *Sequencer) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		text := strings.TrimSpace(string(data))
		if text != "" {
			n, err = strconv.Atoi(text)
			if err != nil {
				return "", fmt.Errorf("sequence file %q is corrupt: %w", s.path, err)
			}
		}
	case os.IsNotExist(err):
		// first run
	default:
		return "", fmt.Errorf("reading sequence file %q: %w", s.path, err)
	}

	n++
	if err := os.WriteFile(s.path, []byte(strconv.Itoa(n)), 0o644); err != nil {
		return "", fmt.Errorf("writing sequence file %q: %w", s.path, err)
	}
	return fmt.Sprintf("CNAB%04d", n), nil
}
