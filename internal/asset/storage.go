// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// # File Storage

// Storage is the binary backend behind asset records. Paths are
// storage-relative, slash-separated keys.
type Storage interface {
	// Save streams r into the file at path, creating parents as needed,
	// and returns the number of bytes written.
	Save(ctx context.Context, path string, r io.Reader) (int64, error)

	// Open returns a reader over the file at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// LocalStorage implements [Storage] on the local filesystem under a fixed
// root directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage constructs a [LocalStorage] rooted at dir.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{root: dir}
}

func (storage *LocalStorage) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	target := filepath.Join(storage.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("storage: failed to create directory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("storage: failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, r)
	if err != nil {
		return 0, fmt.Errorf("storage: failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("storage: failed to flush file: %w", err)
	}
	return written, nil
}

func (storage *LocalStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(storage.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open file: %w", err)
	}
	return file, nil
}
