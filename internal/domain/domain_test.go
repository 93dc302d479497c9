package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSyncModeFromValue(t *testing.T) {
	tests := []struct {
		input    string
		expected SyncMode
	}{
		{"upload_only", SyncModeUploadOnly},
		{"upload_then_delete", SyncModeUploadThenDelete},
		{"download_only", SyncModeDownloadOnly},
		{"download_then_delete", SyncModeDownloadThenDelete},
		{"two_way", SyncModeTwoWay},
		{"bogus", SyncModeUploadOnly},
		{"", SyncModeUploadOnly},
		{"TWO_WAY", SyncModeUploadOnly}, // wire values are exact
	}

	for _, tt := range tests {
		got := SyncModeFromValue(tt.input)
		if got != tt.expected {
			t.Errorf("SyncModeFromValue(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSyncMode_Labels(t *testing.T) {
	tests := []struct {
		mode  SyncMode
		label string
	}{
		{SyncModeUploadOnly, "Upload Only"},
		{SyncModeUploadThenDelete, "Upload then Delete"},
		{SyncModeDownloadOnly, "Download Only"},
		{SyncModeDownloadThenDelete, "Download then Delete"},
		{SyncModeTwoWay, "Two-Way Sync"},
	}

	for _, tt := range tests {
		if got := tt.mode.Label(); got != tt.label {
			t.Errorf("%q.Label() = %q, want %q", tt.mode, got, tt.label)
		}
		if tt.mode.String() != tt.label {
			t.Errorf("%q.String() = %q, want %q", tt.mode, tt.mode.String(), tt.label)
		}
	}

	if len(AllSyncModes()) != 5 {
		t.Errorf("AllSyncModes() returned %d modes, want 5", len(AllSyncModes()))
	}
	if AllSyncModes()[0] != SyncModeUploadOnly || AllSyncModes()[4] != SyncModeTwoWay {
		t.Errorf("AllSyncModes() not in declaration order: %v", AllSyncModes())
	}
}

func TestSyncMode_DeletesSource(t *testing.T) {
	for _, m := range AllSyncModes() {
		want := m == SyncModeUploadThenDelete || m == SyncModeDownloadThenDelete
		if m.DeletesSource() != want {
			t.Errorf("%q.DeletesSource() = %v, want %v", m, m.DeletesSource(), want)
		}
	}
}

func TestSyncMode_JSON(t *testing.T) {
	type wrapper struct {
		Mode SyncMode `json:"mode"`
	}

	data, err := json.Marshal(wrapper{Mode: SyncModeDownloadThenDelete})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"mode":"download_then_delete"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	tests := []struct {
		input    string
		expected SyncMode
	}{
		{`{"mode":"two_way"}`, SyncModeTwoWay},
		{`{"mode":"TWO_WAY"}`, SyncModeTwoWay}, // legacy variant name
		{`{"mode":"sideways"}`, SyncModeUploadOnly},
	}
	for _, tt := range tests {
		var w wrapper
		if err := json.Unmarshal([]byte(tt.input), &w); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.input, err)
		}
		if w.Mode != tt.expected {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, w.Mode, tt.expected)
		}
	}
}

func TestSyncConfig_Validate(t *testing.T) {
	valid := SyncConfig{
		LocalFolderPath: "/storage/DCIM",
		CloudFolderPath: "Photos",
		Provider:        ProviderGoogle,
		SyncMode:        SyncModeUploadOnly,
	}

	tests := []struct {
		name    string
		mutate  func(c *SyncConfig)
		wantErr bool
	}{
		{"valid", func(c *SyncConfig) {}, false},
		{"empty local path", func(c *SyncConfig) { c.LocalFolderPath = "" }, true},
		{"blank cloud path", func(c *SyncConfig) { c.CloudFolderPath = "   " }, true},
		{"unknown provider", func(c *SyncConfig) { c.Provider = "dropbox" }, true},
		{"unknown mode", func(c *SyncConfig) { c.SyncMode = "sideways" }, true},
		{"negative delay", func(c *SyncConfig) { c.DeleteDelayDays = -1 }, true},
		{"delay on non-delete mode", func(c *SyncConfig) { c.DeleteDelayDays = 7 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestSyncConfig_Clone(t *testing.T) {
	now := time.Now()
	orig := SyncConfig{ID: "a", LastSyncTime: &now}

	clone := orig.Clone()
	*clone.LastSyncTime = now.Add(time.Hour)

	if !orig.LastSyncTime.Equal(now) {
		t.Error("Clone shares LastSyncTime with the original")
	}
}

func TestSyncConfigDraft_EnabledDefault(t *testing.T) {
	draft := SyncConfigDraft{LocalFolderPath: "/a", CloudFolderPath: "b"}
	if !draft.ToConfig("id").Enabled {
		t.Error("draft without Enabled should default to enabled")
	}

	disabled := false
	draft.Enabled = &disabled
	if draft.ToConfig("id").Enabled {
		t.Error("explicit Enabled=false was ignored")
	}
}

func TestRemoteListingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRemoteListingError("Documents", cause)

	if !errors.Is(err, ErrRemoteListing) {
		t.Error("RemoteListingError should match ErrRemoteListing")
	}
	if !errors.Is(err, cause) {
		t.Error("RemoteListingError should unwrap to its cause")
	}
	if err.Reason != "connection refused" {
		t.Errorf("Reason = %q", err.Reason)
	}

	// already-wrapped errors are not wrapped twice
	again := NewRemoteListingError("Other", err)
	if again != err {
		t.Error("NewRemoteListingError re-wrapped an existing RemoteListingError")
	}
}
