package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// NetworkVLANs is the logical name of the Racktables network id -> VLAN mapping
// recorded by a VLAN migration.
const NetworkVLANs = "network_id_group_name_id"

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store persists intermediate lookups as one JSON file per logical name.
// Reads always work; writes only happen when the store is enabled.
type Store struct {
	dir     string
	enabled bool
}

func NewStore(dir string, enabled bool) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, enabled: enabled}
}

func (s *Store) Enabled() bool { return s.enabled }

func (s *Store) path(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("invalid cache name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load decodes the entry name into v. It returns false when no entry exists.
func (s *Store) Load(name string, v any) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", name, err)
	}
	return true, nil
}

// Save writes v under name. It is a no-op when the store is disabled.
func (s *Store) Save(name string, v any) error {
	if !s.enabled {
		return nil
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", name, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", name, err)
	}
	return os.Rename(tmp, p)
}
