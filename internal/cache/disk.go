package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Persister is the durable document storage the cache writes through to.
type Persister interface {
	Write(name string, v any) error
	Read(name string, v any) (bool, error)
	Remove(name string) error
}

// Ensure DiskStore implements Persister at compile time.
var _ Persister = (*DiskStore)(nil)

// ErrInvalidName indicates a document name is empty or contains path components.
var ErrInvalidName = errors.New("cache: invalid document name")

// DiskStore persists named documents as JSON files under a single directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir. The directory is created on first write.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the directory documents are stored in.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Write encodes v as JSON and atomically replaces the document file.
func (s *DiskStore) Write(name string, v any) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshaling %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("cache: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: creating temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	// The rename below consumes tmpPath on success; anything left is garbage.
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: closing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return fmt.Errorf("cache: replacing %s: %w", p, err)
	}
	return nil
}

// Read decodes the named document into v.
// Returns (true, nil) if found, (false, nil) if the file does not exist.
func (s *DiskStore) Read(name string, v any) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("cache: reading %s: %w", p, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("cache: parsing %s: %w", p, err)
	}
	return true, nil
}

// Remove deletes the named document. Removing a missing document is not an error.
func (s *DiskStore) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cache: removing %s: %w", p, err)
	}
	return nil
}

// path returns the filesystem path for a document.
// It rejects names that are empty, dot-segments, or contain path separators.
func (s *DiskStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}
