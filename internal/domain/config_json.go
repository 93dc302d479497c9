package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	lastSyncTimeField = iota
	createdAtField
	updatedAtField
)

// timestampLayouts are tried in order when reading a stored timestamp.
// Everything but RFC 3339 is read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// syncConfigRecord is the stored shape of a SyncConfig
type syncConfigRecord struct {
	ID              string   `json:"id"`
	UserID          string   `json:"userId,omitempty"`
	LocalFolderPath string   `json:"localFolderPath"`
	CloudFolderPath string   `json:"cloudFolderPath"`
	Provider        Provider `json:"provider"`
	SyncMode        SyncMode `json:"syncMode"`
	DeleteDelayDays int      `json:"deleteDelayDays"`
	Enabled         bool     `json:"enabled"`
	LastSyncTime    any      `json:"lastSyncTime,omitempty"`
	CreatedAt       any      `json:"createdAt,omitempty"`
	UpdatedAt       any      `json:"updatedAt,omitempty"`
}

// MarshalJSON writes parsed timestamps as RFC 3339 and unparsed ones verbatim
func (c SyncConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(syncConfigRecord{
		ID:              c.ID,
		UserID:          c.UserID,
		LocalFolderPath: c.LocalFolderPath,
		CloudFolderPath: c.CloudFolderPath,
		Provider:        c.Provider,
		SyncMode:        c.SyncMode,
		DeleteDelayDays: c.DeleteDelayDays,
		Enabled:         c.Enabled,
		LastSyncTime:    encodeTimestamp(c.LastSyncTime, c.rawTimes[lastSyncTimeField]),
		CreatedAt:       encodeTimestamp(c.CreatedAt, c.rawTimes[createdAtField]),
		UpdatedAt:       encodeTimestamp(c.UpdatedAt, c.rawTimes[updatedAtField]),
	})
}

// UnmarshalJSON reads a stored record. A missing or null sync mode becomes
// SyncModeUploadOnly, and a timestamp in an unknown format is kept as text
// instead of failing the record.
func (c *SyncConfig) UnmarshalJSON(data []byte) error {
	var rec syncConfigRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	mode := rec.SyncMode
	if !mode.IsValid() {
		mode = SyncModeFromValue(strings.ToLower(string(mode)))
	}

	*c = SyncConfig{
		ID:              rec.ID,
		UserID:          rec.UserID,
		LocalFolderPath: rec.LocalFolderPath,
		CloudFolderPath: rec.CloudFolderPath,
		Provider:        rec.Provider,
		SyncMode:        mode,
		DeleteDelayDays: rec.DeleteDelayDays,
		Enabled:         rec.Enabled,
	}
	c.LastSyncTime, c.rawTimes[lastSyncTimeField] = decodeTimestamp(rec.LastSyncTime)
	c.CreatedAt, c.rawTimes[createdAtField] = decodeTimestamp(rec.CreatedAt)
	c.UpdatedAt, c.rawTimes[updatedAtField] = decodeTimestamp(rec.UpdatedAt)
	return nil
}

// RawTimestamps lists the stored timestamps that could not be parsed, by field name
func (c SyncConfig) RawTimestamps() map[string]string {
	names := [...]string{"lastSyncTime", "createdAt", "updatedAt"}
	var out map[string]string
	for i, raw := range c.rawTimes {
		if raw == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[names[i]] = raw
	}
	return out
}

func encodeTimestamp(t *time.Time, raw string) any {
	switch {
	case t != nil:
		return t.Format(time.RFC3339Nano)
	case raw != "":
		return raw
	}
	return nil
}

// decodeTimestamp accepts the layouts in timestampLayouts and unix milliseconds.
// Anything else comes back as raw text with a nil time.
func decodeTimestamp(v any) (*time.Time, string) {
	switch v := v.(type) {
	case nil:
		return nil, ""
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, ""
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t, ""
			}
		}
		return nil, v
	case float64:
		t := time.UnixMilli(int64(v)).UTC()
		return &t, ""
	default:
		return nil, fmt.Sprint(v)
	}
}
