// Package artifacts is the content store for generated binaries. Images and
// 3D models are written under a single outputs directory and referenced by
// path from the history store.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Stage names used in artifact filenames.
const (
	StageImage = "image"
	StageModel = "model"
)

// Store writes and reads artifact files under a base directory.
type Store struct {
	dir string
}

// NewStore creates the store, creating the directory if absent.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifacts: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("artifacts: failed to create directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes data to a deterministic-but-unique location:
// {stage}_{timestamp}_{token}.{ext}. The token rules out collisions when two
// runs complete within the same timestamp quantum.
func (s *Store) Save(stage string, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("artifacts: failed to create directory %s: %w", s.dir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	token := uuid.NewString()[:8]
	name := fmt.Sprintf("%s_%s_%s.%s", stage, timestamp, token, ext)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("artifacts: failed to write %s: %w", path, err)
	}

	return path, nil
}

// Read returns the contents of a previously saved artifact.
// Callers displaying history should tolerate os.IsNotExist errors; stored
// paths can outlive the files on disk.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifacts: failed to read %s: %w", path, err)
	}
	return data, nil
}

// Dir returns the base directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the absolute path for a bare artifact file name.
func (s *Store) PathFor(name string) string {
	return filepath.Join(s.dir, name)
}
