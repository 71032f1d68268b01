// Package journal persists deliberation results as a JSON-lines append log:
// one self-contained JSON object per line, UTF-8. Reloading the log at start
// gives restart recovery for the engine's history.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agora-dev/agora/internal/deliberation"
)

// Writer appends results to the log file. Appends are serialized and each
// record is written as a single line.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewWriter opens (creating if needed) the journal at path for appending.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return &Writer{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one result as a JSON line.
func (w *Writer) Append(r *deliberation.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Read loads every result from the journal at path, oldest first. A missing
// file is not an error; it yields an empty history. Blank lines are skipped.
func Read(path string) ([]*deliberation.Result, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer f.Close()

	var results []*deliberation.Result
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var r deliberation.Result
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("journal: line %d: %w", line, err)
		}
		results = append(results, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return results, nil
}
