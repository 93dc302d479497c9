package domain

import "strings"

// SyncMode defines the direction in which files are mirrored
type SyncMode string

const (
	// SyncModeUploadOnly copies local files to the cloud
	SyncModeUploadOnly SyncMode = "upload_only"

	// SyncModeUploadThenDelete copies local files to the cloud, then removes the local copy
	SyncModeUploadThenDelete SyncMode = "upload_then_delete"

	// SyncModeDownloadOnly copies cloud files to the local folder
	SyncModeDownloadOnly SyncMode = "download_only"

	// SyncModeDownloadThenDelete copies cloud files locally, then removes the cloud copy
	SyncModeDownloadThenDelete SyncMode = "download_then_delete"

	// SyncModeTwoWay keeps both sides identical
	SyncModeTwoWay SyncMode = "two_way"
)

// syncModeLabels is ordered as the modes are declared
var syncModeLabels = []struct {
	mode  SyncMode
	label string
}{
	{SyncModeUploadOnly, "Upload Only"},
	{SyncModeUploadThenDelete, "Upload then Delete"},
	{SyncModeDownloadOnly, "Download Only"},
	{SyncModeDownloadThenDelete, "Download then Delete"},
	{SyncModeTwoWay, "Two-Way Sync"},
}

// AllSyncModes returns every sync mode in declaration order
func AllSyncModes() []SyncMode {
	modes := make([]SyncMode, 0, len(syncModeLabels))
	for _, m := range syncModeLabels {
		modes = append(modes, m.mode)
	}
	return modes
}

// SyncModeFromValue maps a wire value back to a sync mode.
// Unknown or empty values decode to SyncModeUploadOnly instead of failing.
func SyncModeFromValue(value string) SyncMode {
	for _, m := range syncModeLabels {
		if string(m.mode) == value {
			return m.mode
		}
	}
	return SyncModeUploadOnly
}

// IsValid checks if the sync mode is a known value
func (m SyncMode) IsValid() bool {
	for _, known := range syncModeLabels {
		if known.mode == m {
			return true
		}
	}
	return false
}

// Value returns the stable wire value
func (m SyncMode) Value() string {
	return string(m)
}

// Label returns the human-readable name
func (m SyncMode) Label() string {
	for _, known := range syncModeLabels {
		if known.mode == m {
			return known.label
		}
	}
	return string(m)
}

// String returns the label, matching how modes are shown to users
func (m SyncMode) String() string {
	return m.Label()
}

// DeletesSource reports whether the mode removes the source copy after transfer,
// which is the only case where a delete delay has any effect.
func (m SyncMode) DeletesSource() bool {
	return m == SyncModeUploadThenDelete || m == SyncModeDownloadThenDelete
}

// MarshalText encodes the wire value
func (m SyncMode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// UnmarshalText decodes leniently. Older stores wrote the upper-case variant
// name (UPLOAD_ONLY), which lower-cases to the wire value.
func (m *SyncMode) UnmarshalText(text []byte) error {
	*m = SyncModeFromValue(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}
