// Package ioutils provides file system utilities for the artic-downloader.
//
// This package contains:
//   - Store, a directory rooted file writer backed by afero
//   - ImageService for thumbnail generation
//
// All Store methods take names relative to the store root.
package ioutils

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes files below a root directory.
//
// Store is backed by an afero.Fs so that tests can run against an
// in-memory file system:
//
//	store := NewStore(afero.NewMemMapFs(), "drawings")
//	_ = store.WriteFile(ctx, "study_7.jpg", data)
//
// Production code uses NewOSStore.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a Store rooted at root on the given file system.
func NewStore(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// NewOSStore creates a Store rooted at root on the real file system.
func NewOSStore(root string) *Store {
	return NewStore(afero.NewOsFs(), root)
}

// Fs returns the underlying file system.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the full path of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// EnsureDir creates the root directory and all parents if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
func (s *Store) EnsureDir() error {
	return s.fs.MkdirAll(s.root, 0755)
}

// WriteFile writes data to name, creating parent directories as needed.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing. The context is checked once before the
// write starts.
func (s *Store) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, data, 0644)
}

// ReadFile returns the contents of name.
func (s *Store) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(s.fs, s.Path(name))
}

// Exists reports whether name exists as a non-empty regular file.
func (s *Store) Exists(name string) (bool, error) {
	info, err := s.fs.Stat(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}
