package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSyncConfig_UnmarshalTimestamps(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantRaw string
	}{
		{"rfc3339", `"2024-02-01T10:00:00Z"`, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), ""},
		{"offset", `"2024-02-01T12:00:00+02:00"`, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), ""},
		{"space separated", `"2024-02-01 10:00:00"`, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), ""},
		{"date only", `"2024-02-01"`, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ""},
		{"unix millis", `1706781600000`, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), ""},
		{"unknown", `"yesterday"`, time.Time{}, "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c SyncConfig
			data := `{"id":"a","syncMode":"two_way","createdAt":` + tt.value + `}`
			if err := json.Unmarshal([]byte(data), &c); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if tt.wantRaw != "" {
				if c.CreatedAt != nil {
					t.Errorf("CreatedAt = %v, want nil", c.CreatedAt)
				}
				if got := c.RawTimestamps()["createdAt"]; got != tt.wantRaw {
					t.Errorf("raw createdAt = %q, want %q", got, tt.wantRaw)
				}
				return
			}
			if c.CreatedAt == nil || !c.CreatedAt.Equal(tt.want) {
				t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, tt.want)
			}
			if c.RawTimestamps() != nil {
				t.Errorf("unexpected raw timestamps %v", c.RawTimestamps())
			}
		})
	}
}

func TestSyncConfig_UnmarshalMissingSyncMode(t *testing.T) {
	for _, data := range []string{
		`{"id":"a"}`,
		`{"id":"a","syncMode":null}`,
		`{"id":"a","syncMode":"DOWNLOAD_ONLY"}`,
	} {
		var c SyncConfig
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if !c.SyncMode.IsValid() {
			t.Errorf("Unmarshal(%s) left sync mode %q", data, c.SyncMode)
		}
	}
}

func TestSyncConfig_MarshalRoundTrip(t *testing.T) {
	synced := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	orig := SyncConfig{
		ID:              "config_1",
		LocalFolderPath: "/sd/DCIM",
		CloudFolderPath: "Photos",
		Provider:        ProviderMicrosoft,
		SyncMode:        SyncModeUploadThenDelete,
		DeleteDelayDays: 3,
		Enabled:         true,
		LastSyncTime:    &synced,
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, absent := range []string{"createdAt", "updatedAt", "userId"} {
		if strings.Contains(string(data), absent) {
			t.Errorf("encoding %s should omit %s", data, absent)
		}
	}

	var back SyncConfig
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.SyncMode != orig.SyncMode || back.DeleteDelayDays != 3 || back.Provider != ProviderMicrosoft {
		t.Errorf("round trip changed the record: %+v", back)
	}
	if back.LastSyncTime == nil || !back.LastSyncTime.Equal(synced) {
		t.Errorf("LastSyncTime = %v, want %v", back.LastSyncTime, synced)
	}
}

func TestSyncConfig_UnparsedTimestampWrittenBack(t *testing.T) {
	var c SyncConfig
	if err := json.Unmarshal([]byte(`{"id":"a","updatedAt":"sometime"}`), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	clone := c.Clone()
	data, err := json.Marshal(clone)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"updatedAt":"sometime"`) {
		t.Errorf("encoding %s lost the unparsed timestamp", data)
	}

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clone.UpdatedAt = &now
	data, _ = json.Marshal(clone)
	if !strings.Contains(string(data), `"updatedAt":"2024-03-01T00:00:00Z"`) {
		t.Errorf("a set timestamp should replace the unparsed one, got %s", data)
	}
}
