// Package registry owns the persisted list of sync configurations.
//
// Every mutation reloads the whole list from the store, changes it and writes it
// back as one unit. Records are copied on the way in and out, so callers never
// hold references into the registry.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/logger"
	"github.com/Ning0612/cloudsync/internal/store"
)

// MaxConfigs is the most configurations a registry holds
const MaxConfigs = 10

// maxIDAttempts bounds ID regeneration on collision
const maxIDAttempts = 16

// errCorrupt marks a stored payload that cannot be decoded
var errCorrupt = errors.New("configuration store is corrupted")

// IDGenerator returns a candidate ID for a record created at now
type IDGenerator func(now time.Time) string

// DefaultIDGenerator produces "config_<unix millis>_<random>"
func DefaultIDGenerator(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("config_%d_%s", now.UnixMilli(), suffix)
}

// Registry manages the configuration list in a store
type Registry struct {
	store store.Store
	clock clockwork.Clock
	newID IDGenerator

	mu sync.Mutex
}

// Option configures a Registry
type Option func(*Registry)

// WithClock sets the clock used for ID timestamps
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithIDGenerator replaces DefaultIDGenerator
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) { r.newID = g }
}

// New creates a registry backed by s
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store: s,
		clock: clockwork.NewRealClock(),
		newID: DefaultIDGenerator,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func log() logger.Logger {
	return logger.Component("registry")
}

// ListAll returns copies of every configuration in insertion order.
// An unreadable or corrupted store yields an empty list.
func (r *Registry) ListAll() []domain.SyncConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	configs, err := r.load()
	if err != nil {
		log().Warn("treating configuration store as empty", "error", err)
		return []domain.SyncConfig{}
	}
	return cloneAll(configs)
}

// Get returns a copy of the configuration with id
func (r *Registry) Get(id string) (domain.SyncConfig, bool) {
	for _, c := range r.ListAll() {
		if c.ID == id {
			return c, true
		}
	}
	return domain.SyncConfig{}, false
}

func (r *Registry) Count() int {
	return len(r.ListAll())
}

func (r *Registry) HasReachedMaxLimit() bool {
	return r.Count() >= MaxConfigs
}

// RemainingSlots never goes below zero, even for an over-full store
func (r *Registry) RemainingSlots() int {
	return max(0, MaxConfigs-r.Count())
}

// Create validates draft, assigns a fresh ID and appends the new configuration.
// Validation failures return domain.ErrInvalidConfig before the capacity check,
// a full registry returns domain.ErrCapacityExceeded.
func (r *Registry) Create(draft domain.SyncConfigDraft) (domain.SyncConfig, error) {
	if err := draft.ToConfig("").Validate(); err != nil {
		return domain.SyncConfig{}, err
	}

	var created domain.SyncConfig
	err := r.mutate(func(configs []domain.SyncConfig) ([]domain.SyncConfig, bool, error) {
		if len(configs) >= MaxConfigs {
			return nil, false, fmt.Errorf("%w: at most %d configurations allowed", domain.ErrCapacityExceeded, MaxConfigs)
		}

		id, err := r.uniqueID(configs)
		if err != nil {
			return nil, false, err
		}

		created = draft.ToConfig(id)
		return append(configs, created.Clone()), true, nil
	})
	if err != nil {
		return domain.SyncConfig{}, err
	}

	log().Info("configuration created",
		"id", created.ID,
		"provider", created.Provider,
		"mode", created.SyncMode.Value(),
	)
	return created, nil
}

// Update replaces the stored configuration with the same ID, keeping its position.
// It returns domain.ErrNotFound when no such ID exists.
func (r *Registry) Update(cfg domain.SyncConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	err := r.mutate(func(configs []domain.SyncConfig) ([]domain.SyncConfig, bool, error) {
		i := indexOf(configs, cfg.ID)
		if i < 0 {
			return nil, false, fmt.Errorf("%w: %s", domain.ErrNotFound, cfg.ID)
		}
		configs[i] = cfg.Clone()
		return configs, true, nil
	})
	if err != nil {
		return err
	}

	log().Debug("configuration updated", "id", cfg.ID)
	return nil
}

// SetEnabled changes only the enabled flag
func (r *Registry) SetEnabled(id string, enabled bool) error {
	err := r.mutate(func(configs []domain.SyncConfig) ([]domain.SyncConfig, bool, error) {
		i := indexOf(configs, id)
		if i < 0 {
			return nil, false, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		if configs[i].Enabled == enabled {
			return configs, false, nil
		}
		configs[i].Enabled = enabled
		return configs, true, nil
	})
	if err != nil {
		return err
	}

	log().Debug("configuration toggled", "id", id, "enabled", enabled)
	return nil
}

// MarkSynced records the time of a finished sync run.
// The registry never reads the clock for this; at comes from the sync engine.
func (r *Registry) MarkSynced(id string, at time.Time) error {
	return r.mutate(func(configs []domain.SyncConfig) ([]domain.SyncConfig, bool, error) {
		i := indexOf(configs, id)
		if i < 0 {
			return nil, false, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		t := at
		configs[i].LastSyncTime = &t
		return configs, true, nil
	})
}

// Delete removes the first configuration with id and reports whether one was removed.
// The store is only written when something was removed.
func (r *Registry) Delete(id string) (bool, error) {
	removed := false
	err := r.mutate(func(configs []domain.SyncConfig) ([]domain.SyncConfig, bool, error) {
		i := indexOf(configs, id)
		if i < 0 {
			return configs, false, nil
		}
		removed = true
		return append(configs[:i], configs[i+1:]...), true, nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		log().Info("configuration deleted", "id", id)
	}
	return removed, nil
}

// mutate runs one read-modify-write cycle under the registry mutex and, when the
// store supports it, the store's lock. fn reports whether the list changed.
func (r *Registry) mutate(fn func([]domain.SyncConfig) ([]domain.SyncConfig, bool, error)) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if locker, ok := r.store.(store.Locker); ok {
		unlock, lockErr := locker.Lock()
		if lockErr != nil {
			return lockErr
		}
		defer func() {
			if unlockErr := unlock(); unlockErr != nil && err == nil {
				err = unlockErr
			}
		}()
	}

	configs, loadErr := r.load()
	switch {
	case errors.Is(loadErr, errCorrupt):
		// replaced by whatever this mutation writes
		log().Warn("ignoring corrupted configuration store", "error", loadErr)
		configs = []domain.SyncConfig{}
	case loadErr != nil:
		return loadErr
	}

	updated, changed, err := fn(configs)
	if err != nil || !changed {
		return err
	}
	return r.save(updated)
}

func (r *Registry) load() ([]domain.SyncConfig, error) {
	data, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load configurations: %w", err)
	}
	if len(data) == 0 {
		return []domain.SyncConfig{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}

	// a record that does not decode is skipped rather than failing the list
	configs := make([]domain.SyncConfig, 0, len(records))
	for i, rec := range records {
		var c domain.SyncConfig
		if err := json.Unmarshal(rec, &c); err != nil {
			log().Warn("skipping unreadable configuration record", "index", i, "error", err)
			continue
		}
		if raw := c.RawTimestamps(); raw != nil {
			log().Debug("configuration has timestamps in an unknown format", "id", c.ID, "timestamps", raw)
		}
		configs = append(configs, c)
	}
	return configs, nil
}

func (r *Registry) save(configs []domain.SyncConfig) error {
	if configs == nil {
		configs = []domain.SyncConfig{}
	}
	data, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("encode configurations: %w", err)
	}
	if err := r.store.Save(data); err != nil {
		return fmt.Errorf("persist configurations: %w", err)
	}
	return nil
}

func (r *Registry) uniqueID(configs []domain.SyncConfig) (string, error) {
	now := r.clock.Now()
	for range maxIDAttempts {
		id := r.newID(now)
		if id != "" && indexOf(configs, id) < 0 {
			return id, nil
		}
	}
	return "", errors.New("could not generate a unique configuration ID")
}

func indexOf(configs []domain.SyncConfig, id string) int {
	for i := range configs {
		if configs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(configs []domain.SyncConfig) []domain.SyncConfig {
	out := make([]domain.SyncConfig, len(configs))
	for i, c := range configs {
		out[i] = c.Clone()
	}
	return out
}
