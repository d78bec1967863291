package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirStore reads modules from a directory tree.
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating module directory: %w", err)
	}
	return &DirStore{root: dir}, nil
}

func (s *DirStore) file(name string) (string, error) {
	clean, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// LoadModule reads the module called name.
func (s *DirStore) LoadModule(name string) (string, error) {
	p, err := s.file(name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Put writes source under name, creating parent directories.
func (s *DirStore) Put(name, source string) error {
	p, err := s.file(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(source), 0644)
}

// Close is a no-op.
func (s *DirStore) Close() error { return nil }
