package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Ning0612/cloudsync/internal/fileutil"
)

// FileStore keeps the slot in a single file, replaced atomically on every save.
// Lock takes an advisory lock on a sibling ".lock" file so several processes can
// share one store.
type FileStore struct {
	path  string
	flock *flock.Flock
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	return &FileStore{
		path:  path,
		flock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the data file location
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	return data, nil
}

func (f *FileStore) Save(data []byte) error {
	if err := fileutil.WriteAtomic(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

// Lock blocks until the inter-process lock is held
func (f *FileStore) Lock() (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := f.flock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock store: %w", err)
	}
	return f.flock.Unlock, nil
}
