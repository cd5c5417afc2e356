// Package settings persists the API key in a small YAML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
)

// APIKeyField is the fixed key the API key is stored under.
const APIKeyField = "nbp_api_key"

// FileStore keeps settings in a YAML mapping on disk. Unknown keys in the
// file are preserved on save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ nanobanana.CredentialStore = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/nbp/settings.yaml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "nbp", "settings.yaml"), nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored API key, or "" when nothing was saved yet.
func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[APIKeyField], nil
}

// Save stores key under APIKeyField.
func (s *FileStore) Save(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[APIKeyField] = key

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}
