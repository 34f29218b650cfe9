// Package upload stores story images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes is the largest accepted image.
const MaxImageBytes = 5 << 20

// URLPrefix is where the gateway serves stored files.
const URLPrefix = "/uploads"

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNotImage     = errors.New("only image files are allowed")
)

// Store writes images under Dir.
type Store struct {
	Dir      string
	MaxBytes int64
}

// NewStore creates dir if needed and returns a Store using the default size limit.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, MaxBytes: MaxImageBytes}, nil
}

// Check validates the declared size and content type without reading the file.
func (s *Store) Check(fh *multipart.FileHeader) error {
	if fh.Size > s.MaxBytes {
		return ErrFileTooLarge
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return ErrNotImage
	}
	return nil
}

// Save validates fh, writes it as image-<uuid><ext> and returns its public URL.
// The content is sniffed as well, so a renamed non-image is rejected.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if err := s.Check(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := "image-" + uuid.NewString() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	// One byte past the limit detects a header that under-reported the size.
	n, err := io.Copy(dst, io.LimitReader(src, s.MaxBytes+1))
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > s.MaxBytes {
		os.Remove(dst.Name())
		return "", ErrFileTooLarge
	}

	return path.Join(URLPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s *Store) Remove(url string) error {
	name := strings.TrimPrefix(url, URLPrefix+"/")
	if name == url || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
