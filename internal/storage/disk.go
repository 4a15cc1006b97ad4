package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

// DiskStorage keeps uploads as files in a single directory.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates dir if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Save validates the upload and writes it under a random name.
// Nothing is left on disk when Save fails.
func (s *DiskStorage) Save(ctx context.Context, upload models.Upload) (string, error) {
	ext, err := Validate(upload)
	if err != nil {
		return "", err
	}

	name := newName(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	written, err := io.Copy(f, io.LimitReader(upload.Body, MaxFileSize+1))
	if err == nil && written > MaxFileSize {
		err = ErrFileTooLarge
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Log.Errorw("failed to remove partial upload", "file", name, "error", rmErr)
		}
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	logger.Log.Infow("upload stored", "file", name, "bytes", written)
	return name, nil
}

// Remove deletes a stored upload. Removing a missing file is not an error.
func (s *DiskStorage) Remove(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Open returns the stored file for reading.
func (s *DiskStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}
