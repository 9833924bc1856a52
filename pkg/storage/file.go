package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage persists each key as a single file under Dir. Writes go to a
// temporary file that is renamed into place, so readers never observe a
// partially written snapshot.
type FileStorage struct {
	Dir   string
	Codec Codec
}

// NewFileStorage builds a FileStorage for dir using codec (JSON when nil).
func NewFileStorage(dir string, codec Codec) *FileStorage {
	if codec == nil {
		codec = JSON
	}
	return &FileStorage{Dir: dir, Codec: codec}
}

func (s *FileStorage) Load(_ context.Context, key string) (map[string]any, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, false, nil
	}
	snapshot, err := s.codec().Unmarshal(data)
	if err != nil {
		return nil, false, fmt.Errorf("storage: decode %q as %s: %w", key, s.codec().Name(), err)
	}
	return snapshot, true, nil
}

func (s *FileStorage) Save(_ context.Context, key string, snapshot map[string]any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := s.codec().Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("storage: encode %q as %s: %w", key, s.codec().Name(), err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %q: %w", s.Dir, err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename %q: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Close() error {
	return nil
}

func (s *FileStorage) codec() Codec {
	if s.Codec == nil {
		return JSON
	}
	return s.Codec
}

func (s *FileStorage) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q is not a valid file name", ErrInvalidKey, key)
	}
	if strings.TrimSpace(s.Dir) == "" {
		return "", fmt.Errorf("storage: file storage dir is required")
	}
	return filepath.Join(s.Dir, key+s.codec().Extension()), nil
}
