package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/jotter/internal/query"
)

// State holds local preferences that outlive a single command.
type State struct {
	Sort query.Sort `yaml:"sort"`
}

func DefaultState() *State {
	return &State{Sort: query.SortUpdatedDesc}
}

// LoadState reads the state file. A missing file yields the defaults, and an
// unknown sort value falls back to the default sort.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	s := DefaultState()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if !query.ValidSort(string(s.Sort)) {
		s.Sort = query.SortUpdatedDesc
	}
	return s, nil
}

func (s *State) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
