package domain

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies the remote storage backend a cloud folder belongs to
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

// IsValid checks if the provider is a known value
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft:
		return true
	}
	return false
}

// DisplayName returns the product name of the provider
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Drive"
	case ProviderMicrosoft:
		return "OneDrive"
	}
	return string(p)
}

// SyncConfig binds a local folder to a cloud folder with a sync mode
type SyncConfig struct {
	// ID is unique within the registry
	ID string `json:"id"`

	// UserID is carried through for stores shared with a backend account
	UserID string `json:"userId,omitempty"`

	LocalFolderPath string   `json:"localFolderPath"`
	CloudFolderPath string   `json:"cloudFolderPath"`
	Provider        Provider `json:"provider"`
	SyncMode        SyncMode `json:"syncMode"`

	// DeleteDelayDays only has an effect when SyncMode.DeletesSource() is true
	DeleteDelayDays int `json:"deleteDelayDays"`

	Enabled bool `json:"enabled"`

	// Timestamps are owned by the sync engine; the registry never invents them
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`

	// rawTimes holds timestamps that did not parse, indexed like timestampFields,
	// so they are written back unchanged
	rawTimes [3]string
}

// Validate checks the required fields of the configuration.
// A nonzero delete delay on a mode that never deletes is accepted.
func (c SyncConfig) Validate() error {
	if strings.TrimSpace(c.LocalFolderPath) == "" {
		return fmt.Errorf("%w: local folder path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CloudFolderPath) == "" {
		return fmt.Errorf("%w: cloud folder path is required", ErrInvalidConfig)
	}
	if !c.Provider.IsValid() {
		return fmt.Errorf("%w: provider must be %q or %q, got %q",
			ErrInvalidConfig, ProviderGoogle, ProviderMicrosoft, c.Provider)
	}
	if !c.SyncMode.IsValid() {
		return fmt.Errorf("%w: unknown sync mode %q", ErrInvalidConfig, c.SyncMode)
	}
	if c.DeleteDelayDays < 0 {
		return fmt.Errorf("%w: delete delay must be a non-negative number of days, got %d",
			ErrInvalidConfig, c.DeleteDelayDays)
	}
	return nil
}

// Clone returns a copy that shares no memory with c
func (c SyncConfig) Clone() SyncConfig {
	c.LastSyncTime = cloneTime(c.LastSyncTime)
	c.CreatedAt = cloneTime(c.CreatedAt)
	c.UpdatedAt = cloneTime(c.UpdatedAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// SyncConfigDraft is the input for creating a configuration; the registry assigns the ID
type SyncConfigDraft struct {
	UserID          string
	LocalFolderPath string
	CloudFolderPath string
	Provider        Provider
	SyncMode        SyncMode
	DeleteDelayDays int

	// Enabled defaults to true when nil
	Enabled *bool
}

// ToConfig builds the configuration a draft describes, with the given ID
func (d SyncConfigDraft) ToConfig(id string) SyncConfig {
	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	return SyncConfig{
		ID:              id,
		UserID:          d.UserID,
		LocalFolderPath: d.LocalFolderPath,
		CloudFolderPath: d.CloudFolderPath,
		Provider:        d.Provider,
		SyncMode:        d.SyncMode,
		DeleteDelayDays: d.DeleteDelayDays,
		Enabled:         enabled,
	}
}
