// Package store persists the serialized configuration list in a named slot.
//
// A store holds opaque bytes; encoding belongs to the caller. Load on a slot that
// was never written returns (nil, nil).
package store

import (
	"fmt"
	"strings"

	"github.com/Ning0612/cloudsync/internal/config"
	"github.com/Ning0612/cloudsync/internal/domain"
)

// Store reads and writes a single slot
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Locker is implemented by stores that can be shared between processes.
// The returned function releases the lock.
type Locker interface {
	Lock() (unlock func() error, err error)
}

// Closer is implemented by stores holding resources
type Closer interface {
	Close() error
}

// Open creates the store selected by cfg
func Open(cfg config.StoreConfig) (Store, error) {
	slot := strings.TrimSpace(cfg.Slot)
	if slot == "" {
		slot = config.DefaultSlot
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path, slot)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend: %q", domain.ErrConfigInvalid, cfg.Backend)
	}
}

// Close releases s if it holds resources
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
