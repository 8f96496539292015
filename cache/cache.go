package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Info describes the stored snapshot. ModTime is the time of the last
// successful fetch.
type Info struct {
	Exists  bool
	ModTime time.Time
	Size    int64
}

// Store holds the most recent raw catalog snapshot.
type Store interface {
	Stat() (Info, error)
	Read() ([]byte, error)
	Write(payload []byte) error
}

// FileStore keeps the snapshot in a single file. Writes go to a temporary
// file in the same directory and are renamed over the old snapshot, so a
// reader sees either the previous or the new payload.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a store for path on fs.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// NewOSFileStore returns a store backed by the real filesystem.
func NewOSFileStore(path string) *FileStore {
	return NewFileStore(afero.NewOsFs(), path)
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Stat() (Info, error) {
	fi, err := s.fs.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat cache file '%s': %w", s.path, err)
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("cache path '%s' is a directory", s.path)
	}
	return Info{Exists: true, ModTime: fi.ModTime(), Size: fi.Size()}, nil
}

func (s *FileStore) Read() ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file '%s': %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) Write(payload []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory '%s': %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temporary cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync temporary cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temporary cache file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file '%s': %w", s.path, err)
	}
	return nil
}
