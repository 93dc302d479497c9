package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/Ning0612/cloudsync/internal/domain"
)

// Options controls which child folders are listed
type Options struct {
	// ShowHidden lists dot-folders as well
	ShowHidden bool

	// Exclude holds doublestar patterns matched against folder names
	Exclude []string
}

// Lister lists child folders of a locally mounted filesystem
type Lister struct {
	fs   afero.Fs
	opts Options
}

// New creates a lister over fs
func New(fs afero.Fs, opts Options) (*Lister, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: invalid exclude pattern %q", domain.ErrConfigInvalid, pattern)
		}
	}
	return &Lister{fs: fs, opts: opts}, nil
}

// NewOS creates a lister over the host filesystem
func NewOS(opts Options) (*Lister, error) {
	return New(afero.NewOsFs(), opts)
}

// Resolve makes path absolute and checks it is a readable directory
func (l *Lister) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInaccessibleFolder)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInaccessibleFolder, path, err)
	}

	info, err := l.fs.Stat(absPath)
	if err != nil {
		return "", l.mapError(absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: not a directory", domain.ErrInaccessibleFolder, absPath)
	}
	if !l.CanRead(absPath) {
		return "", fmt.Errorf("%w: %s: permission denied", domain.ErrInaccessibleFolder, absPath)
	}

	return absPath, nil
}

// CanRead reports whether the directory at path can be opened for listing
func (l *Lister) CanRead(path string) bool {
	f, err := l.fs.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ListFolders returns the readable, visible child folders of dir in directory order.
// dir must already be resolved.
func (l *Lister) ListFolders(ctx context.Context, dir string) ([]domain.FolderEntry, error) {
	f, err := l.fs.Open(dir)
	if err != nil {
		return nil, l.mapError(dir, err)
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return nil, l.mapError(dir, err)
	}

	result := make([]domain.FolderEntry, 0, len(names))
	for _, name := range names {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !l.visible(name) {
			continue
		}

		childPath := filepath.Join(dir, name)

		// Stat follows symlinks, so linked folders are listed too
		info, err := l.fs.Stat(childPath)
		if err != nil || !info.IsDir() {
			continue
		}
		if !l.CanRead(childPath) {
			continue
		}

		result = append(result, domain.FolderEntry{
			ID:          childPath,
			Path:        childPath,
			DisplayName: name,
		})
	}

	return result, nil
}

// visible applies the hidden and exclude filters to a folder name
func (l *Lister) visible(name string) bool {
	if !l.opts.ShowHidden && strings.HasPrefix(name, ".") {
		return false
	}
	for _, pattern := range l.opts.Exclude {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return false
		}
	}
	return true
}

// mapError converts OS errors to domain errors
func (l *Lister) mapError(path string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s: does not exist", domain.ErrInaccessibleFolder, path)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %s: permission denied", domain.ErrInaccessibleFolder, path)
	}

	return fmt.Errorf("%w: %s: %v", domain.ErrInaccessibleFolder, path, err)
}
