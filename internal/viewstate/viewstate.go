// Package viewstate remembers which route sections are collapsed, per
// server origin. It is the only state makerapi writes to disk.
package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	FileName  = "viewstate.json"
	keyPrefix = "makerapi-"

	collapsed = "collapsed"
	expanded  = "expanded"
)

type file struct {
	Origins map[string]map[string]string `json:"origins"`
}

// Store reads and writes collapse flags for one origin. Other origins in the
// same file are preserved on write.
type Store struct {
	mu     sync.Mutex
	path   string
	origin string
	data   file
}

// Open loads dir/viewstate.json. A missing file is an empty store; a corrupt
// one is reported and then treated as empty so the view still renders.
func Open(dir, origin string) (*Store, error) {
	s := &Store{
		path:   filepath.Join(dir, FileName),
		origin: origin,
		data:   file{Origins: map[string]map[string]string{}},
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read view state: %w", err)
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		s.data = file{Origins: map[string]map[string]string{}}
		return s, fmt.Errorf("parse view state %s: %w", s.path, err)
	}
	if s.data.Origins == nil {
		s.data.Origins = map[string]map[string]string{}
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Get reports whether section key is collapsed. Unknown keys are expanded.
func (s *Store) Get(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Origins[s.origin][keyPrefix+key] == collapsed
}

func (s *Store) Set(key string, isCollapsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, isCollapsed)
}

// Toggle flips key and returns the new collapsed state.
func (s *Store) Toggle(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.Origins[s.origin][keyPrefix+key] != collapsed
	return next, s.set(key, next)
}

// set records the flag and saves. A failed save restores the previous
// value so memory keeps matching the file.
func (s *Store) set(key string, isCollapsed bool) error {
	m, hadOrigin := s.data.Origins[s.origin]
	if !hadOrigin {
		m = map[string]string{}
		s.data.Origins[s.origin] = m
	}
	v := expanded
	if isCollapsed {
		v = collapsed
	}
	k := keyPrefix + key
	prev, hadKey := m[k]
	m[k] = v

	if err := s.save(); err != nil {
		switch {
		case !hadOrigin:
			delete(s.data.Origins, s.origin)
		case hadKey:
			m[k] = prev
		default:
			delete(m, k)
		}
		return err
	}
	return nil
}

// save replaces the file via a temp file and rename.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".viewstate-*.json")
	if err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write view state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write view state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write view state: %w", err)
	}
	return nil
}
