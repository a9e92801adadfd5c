package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileKV stores each key as a file in one directory. Writes go through a
// temp file and rename so a crash never leaves a half-written value.
type FileKV struct {
	dir string
}

var _ KV = (*FileKV)(nil)

// NewFileKV creates dir if needed and returns a store rooted there.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create kv dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (s *FileKV) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+".json")
}

// Get implements KV.
func (s *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set implements KV.
func (s *FileKV) Set(_ context.Context, key string, value []byte) error {
	return atomic.WriteFile(s.path(key), bytes.NewReader(value))
}

// Ping reports whether the directory is still there.
func (s *FileKV) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Close implements KV.
func (s *FileKV) Close() error {
	return nil
}
