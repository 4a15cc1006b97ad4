// Package storage validates and stores uploaded cover images.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

// MaxFileSize is the largest accepted upload in bytes.
const MaxFileSize = 5 << 20

var (
	ErrUnsupportedMediaType = errors.New("only .jpeg, .jpg and .png files are allowed")
	ErrFileTooLarge         = errors.New("file too large, max 5MB")
	ErrInvalidName          = errors.New("invalid file name")
	ErrNotFound             = errors.New("file not found")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// Validate checks the declared media type and size of an upload and
// returns the extension its stored name will carry.
func Validate(upload models.Upload) (string, error) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(upload.ContentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, upload.ContentType)
	}
	if upload.Size > MaxFileSize {
		return "", ErrFileTooLarge
	}
	return ext, nil
}

// newName returns a random object name with the given extension.
func newName(ext string) string {
	return uuid.NewString() + ext
}

// checkName rejects anything that is not a plain file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
