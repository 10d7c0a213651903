// Package resume records which targets of a multi-target run already
// finished, so an interrupted run can pick up where it stopped.
package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// State is the on-disk progress of one run. A saved state only applies to
// a later run with the same mode and wordlist.
type State struct {
	Mode      string   `json:"mode"`
	Wordlist  string   `json:"wordlist"`
	Completed []string `json:"completed_targets"`
	Total     int      `json:"total_targets"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates an empty state that will be saved to path.
func New(path, mode, wordlist string, total int) *State {
	return &State{
		Mode:     mode,
		Wordlist: wordlist,
		Total:    total,
		path:     path,
		done:     make(map[string]struct{}),
	}
}

// Load reads a saved state. It returns nil, nil if the file does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}
	s.path = path
	s.done = make(map[string]struct{}, len(s.Completed))
	for _, t := range s.Completed {
		s.done[t] = struct{}{}
	}
	return &s, nil
}

// Open loads the state at path if it belongs to the same mode and wordlist,
// and otherwise starts a fresh one.
func Open(path, mode, wordlist string, total int) (*State, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	if s != nil && s.Mode == mode && s.Wordlist == wordlist {
		return s, nil
	}
	return New(path, mode, wordlist, total), nil
}

// MarkCompleted records target as finished.
func (s *State) MarkCompleted(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[target]; !ok {
		s.done[target] = struct{}{}
		s.Completed = append(s.Completed, target)
	}
}

// Remaining returns the targets not yet completed, in order.
func (s *State) Remaining(targets []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []string
	for _, t := range targets {
		if _, ok := s.done[t]; !ok {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// Save writes the state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Remove deletes the resume file once every target has finished.
func (s *State) Remove() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
