// Package runstate persists build progress inside a feature directory so an
// interrupted build can resume without redoing finished phases.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iambrandonn/featforge/internal/fsutil"
)

// FileName is the build progress record within a feature directory
const FileName = "build-state.json"

// State records which positions in the extracted phase queue have completed
// their review loop. Progress is keyed by queue position rather than by the
// number printed in the phase header: plans may repeat a number, and every
// entry must still be built exactly once.
type State struct {
	CompletedSteps []int `json:"completed_steps"`
}

// Load reads the build state from dir. A missing file is an empty state,
// not an error.
func Load(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read build state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode build state: %w", err)
	}
	return &st, nil
}

// Save writes the build state to dir
func Save(dir string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode build state: %w", err)
	}
	return fsutil.AtomicWrite(filepath.Join(dir, FileName), data)
}

// Clear removes the build state, marking the build fully finished
func Clear(dir string) error {
	err := os.Remove(filepath.Join(dir, FileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear build state: %w", err)
	}
	return nil
}

// Completed reports whether queue position pos is recorded as complete
func (s *State) Completed(pos int) bool {
	for _, p := range s.CompletedSteps {
		if p == pos {
			return true
		}
	}
	return false
}

// MarkComplete records queue position pos as complete
func (s *State) MarkComplete(pos int) {
	if s.Completed(pos) {
		return
	}
	s.CompletedSteps = append(s.CompletedSteps, pos)
}
