// Package artifact persists rendered emergency-code images at a fixed path
// so the presentation layer can serve them directly.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store writes a single artifact file with full overwrite semantics.
type Store struct {
	dir  string
	name string
}

// NewStore creates a store rooted at dir. The directory is created on first
// write if missing.
func NewStore(dir, name string) *Store {
	return &Store{dir: dir, name: name}
}

// Path returns the fixed location of the artifact.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Write replaces the artifact atomically: the bytes land in a temp file first
// and are renamed over the target so readers never observe a partial image.
func (s *Store) Write(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Read returns the current artifact bytes.
func (s *Store) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}
