// Package state persists the dashboard's working state between runs: the chat
// session, the selected project and template, and BRD review progress.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// State is the persisted working state.
type State struct {
	SessionID string   `yaml:"session_id,omitempty"`
	ProjectID string   `yaml:"project_id,omitempty"`
	Project   string   `yaml:"project,omitempty"`
	Template  string   `yaml:"template,omitempty"`
	Approved  bool     `yaml:"approved"`
	Reviewed  []string `yaml:"reviewed,omitempty"`
	// Selected is the title of the BRD section being worked on.
	Selected string `yaml:"selected,omitempty"`
	// PageID is the wiki page the BRD was last published to.
	PageID string `yaml:"page_id,omitempty"`
}

// File is a State stored as YAML at a path. Every read goes to disk so
// separate invocations see each other's changes.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a state file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads the state. A missing file yields the zero State.
func (f *File) Load() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (State, error) {
	var s State
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read state: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse state %s: %w", f.path, err)
	}
	return s, nil
}

// Save writes s, creating the directory when needed.
func (f *File) Save(s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(s)
}

func (f *File) save(s State) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result.
func (f *File) Update(fn func(*State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.load()
	if err != nil {
		return err
	}
	fn(&s)
	return f.save(s)
}

// LoadSession returns the stored chat session id.
func (f *File) LoadSession() (string, error) {
	s, err := f.Load()
	return s.SessionID, err
}

// SaveSession stores the chat session id.
func (f *File) SaveSession(id string) error {
	return f.Update(func(s *State) { s.SessionID = id })
}
