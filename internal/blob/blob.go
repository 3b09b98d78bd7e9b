// Package blob stores uploaded files (band logos, show posters) outside the
// database and hands back opaque paths the stores can persist.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// Store saves and serves uploaded files. Save returns an opaque path that
// Open and Remove accept later.
type Store interface {
	Save(r io.Reader, filename string) (string, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// DiskStore keeps uploads in a flat directory, one random name per file.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store
// rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the file under a fresh random name, keeping the original
// extension so content types survive a round trip.
func (s *DiskStore) Save(r io.Reader, filename string) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return name, nil
}

// Open returns the stored file for reading.
func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, s.clean(path)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. Removing a file that is already gone is not
// an error.
func (s *DiskStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, s.clean(path)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// clean strips any directory components so stored paths cannot escape the
// upload directory.
func (s *DiskStore) clean(path string) string {
	return filepath.Base(filepath.Clean(path))
}
