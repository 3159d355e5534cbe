package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Recorder writes run artifacts under a per-run directory: a CSV generation
// history appended as the run progresses plus JSON snapshots. A nil Recorder
// is valid and records nothing, so callers never branch on whether output is
// enabled.
type Recorder struct {
	dir     string
	history *os.File
	wrote   bool
}

// NewRecorder creates the run directory and opens the generation history
// file. An empty dir disables recording and returns a nil Recorder.
func NewRecorder(dir, runID string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	f, err := os.Create(filepath.Join(runDir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("create generation history: %w", err)
	}
	return &Recorder{dir: runDir, history: f}, nil
}

// Dir returns the run's artifact directory, empty when recording is off.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// RecordGeneration appends one row to the generation history. The header is
// written with the first row.
func (r *Recorder) RecordGeneration(s GenerationStats) error {
	if r == nil {
		return nil
	}
	rows := []GenerationStats{s}
	if !r.wrote {
		r.wrote = true
		return gocsv.Marshal(rows, r.history)
	}
	return gocsv.MarshalWithoutHeaders(rows, r.history)
}

// WriteJSON stores an artifact as indented JSON next to the history file.
func (r *Recorder) WriteJSON(name string, v any) error {
	if r == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the generation history.
func (r *Recorder) Close() error {
	if r == nil || r.history == nil {
		return nil
	}
	err := r.history.Close()
	r.history = nil
	return err
}
