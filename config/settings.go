package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"sjsage522/projectwatcher/internal/filter"
	"sjsage522/projectwatcher/pkg/errors"
)

type settingsFile struct {
	Filters filter.RecencyFilter `yaml:"filters"`
}

// Settings is the user-editable state persisted between runs. It is created
// once at startup and handed to whatever needs the current filter.
type Settings struct {
	path    string
	mu      sync.RWMutex
	current filter.RecencyFilter
	editing atomic.Bool
}

// LoadSettings reads the settings file at path, creating it with both
// filter bounds unset when it does not exist yet.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path, current: filter.None()}

	f, err := s.read()
	if os.IsNotExist(err) {
		if err := s.write(s.current); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	s.current = f
	return s, nil
}

// Path returns the backing file
func (s *Settings) Path() string {
	return s.path
}

// Filter returns the active recency filter
func (s *Settings) Filter() filter.RecencyFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates f, persists it and makes it active. A rejected filter
// leaves both the file and the active filter untouched.
func (s *Settings) Save(f filter.RecencyFilter) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(f); err != nil {
		return err
	}
	s.current = f
	return nil
}

// Reload re-reads the file so edits made by another process take effect.
// On any error the active filter is kept.
func (s *Settings) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	s.current = f
	return nil
}

// BeginEdit marks the filter editor as open; alerts are held back meanwhile.
func (s *Settings) BeginEdit() {
	s.editing.Store(true)
}

// EndEdit marks the filter editor as closed
func (s *Settings) EndEdit() {
	s.editing.Store(false)
}

// Editing reports whether the filter editor is open
func (s *Settings) Editing() bool {
	return s.editing.Load()
}

func (s *Settings) read() (filter.RecencyFilter, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return filter.RecencyFilter{}, err
	}

	sf := settingsFile{Filters: filter.None()}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return filter.RecencyFilter{}, errors.NewConfiguration(fmt.Sprintf("parsing settings %s", s.path), err)
	}
	if err := sf.Filters.Validate(); err != nil {
		return filter.RecencyFilter{}, fmt.Errorf("settings %s: %w", s.path, err)
	}
	return sf.Filters, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Settings) write(f filter.RecencyFilter) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewConfiguration("creating settings dir", err)
	}

	data, err := yaml.Marshal(settingsFile{Filters: f})
	if err != nil {
		return errors.NewConfiguration("encoding settings", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return errors.NewConfiguration("creating temp settings file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewConfiguration("writing settings", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewConfiguration("writing settings", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.NewConfiguration("replacing settings", err)
	}
	return nil
}
