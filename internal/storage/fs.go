package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fieldaudit/internal/apperr"
)

// ErrQuotaExceeded is returned when a value does not fit the configured quota.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// FS is a string backend keeping one file per key under a root directory.
type FS struct {
	root     string // absolute path to the store directory
	maxBytes int    // 0 means unlimited
}

// NewFS creates the FS backend rooted at dir, creating the directory when
// needed. Values larger than maxBytes are rejected (0 disables the quota).
func NewFS(dir string, maxBytes int) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, maxBytes: maxBytes}, nil
}

func (f *FS) Name() string { return "file" }

// safePath maps a key to its file and rejects keys that would escape root.
func (f *FS) safePath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	abs := filepath.Join(f.root, key+".json")
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes root: %s", key)
	}
	return abs, nil
}

// SetString atomically writes value: tmp file → fsync → rename.
func (f *FS) SetString(_ context.Context, key string, value []byte) error {
	if f.maxBytes > 0 && len(value) > f.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(value), f.maxBytes)
	}
	abs, err := f.safePath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".fieldaudit-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// GetString returns the stored value for key.
func (f *FS) GetString(_ context.Context, key string) ([]byte, error) {
	abs, err := f.safePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Remove deletes the value for key.
func (f *FS) Remove(_ context.Context, key string) error {
	abs, err := f.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (f *FS) Close() error { return nil }
