package logger

import (
	"errors"
	"testing"
)

func TestSanitizer_Sanitize(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "password",
			input:    "login with password=secret123",
			expected: "login with password=***",
		},
		{
			name:     "token",
			input:    "auth token=abc123xyz",
			expected: "auth token=***",
		},
		{
			name:     "bearer token",
			input:    "Authorization: Bearer eyJhbGc...",
			expected: "Authorization: bearer ***",
		},
		{
			name:     "access token in query",
			input:    "GET /drive/v3/files?access_token=ya29.a0Af&fields=files",
			expected: "GET /drive/v3/files?access_token=***&fields=files",
		},
		{
			name:     "token response body",
			input:    `{"access_token":"ya29.a0Af","expires_in":3599}`,
			expected: `{"access_token":"***","expires_in":3599}`,
		},
		{
			name:     "authorization code",
			input:    "redirect /callback?code=4/0AbCd&scope=drive",
			expected: "redirect /callback?code=***&scope=drive",
		},
		{
			name:     "client secret",
			input:    "exchange client_secret=GOCSPX-abc&grant_type=authorization_code",
			expected: "exchange client_secret=***&grant_type=authorization_code",
		},
		{
			name:     "windows user path",
			input:    "folder at C:\\Users\\john\\Pictures",
			expected: "folder at ***:\\Users\\***\\Pictures",
		},
		{
			name:     "unix home path",
			input:    "config in /home/john/.config/cloudsync",
			expected: "config in /home/***/.config/cloudsync",
		},
		{
			name:     "email partial mask",
			input:    "account john.doe@example.com",
			expected: "account joh***@example.com",
		},
		{
			name:     "no sensitive data",
			input:    "listed 12 folders under Photos/2024",
			expected: "listed 12 folders under Photos/2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.input)
			if result != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSanitizer_SanitizeArgs(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name  string
		input []any
		want  []any
	}{
		{
			name:  "sensitive key masked",
			input: []any{"provider", "google", "refresh_token", "1//0gLongRefreshToken"},
			want:  []any{"provider", "google", "refresh_token", "1***n"},
		},
		{
			name:  "sensitive error value masked",
			input: []any{"auth", errors.New("bad")},
			want:  []any{"auth", "b***"},
		},
		{
			name:  "plain value rewritten by patterns",
			input: []any{"path", "/home/john/sd"},
			want:  []any{"path", "/home/***/sd"},
		},
		{
			name:  "non-string values untouched",
			input: []any{"folders", 3, "enabled", true},
			want:  []any{"folders", 3, "enabled", true},
		},
		{
			name:  "odd trailing arg kept",
			input: []any{"component", "registry", "dangling"},
			want:  []any{"component", "registry", "dangling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.SanitizeArgs(tt.input)
			if len(result) != len(tt.want) {
				t.Fatalf("SanitizeArgs() len = %d, want %d", len(result), len(tt.want))
			}
			for i := range tt.want {
				if result[i] != tt.want[i] {
					t.Errorf("SanitizeArgs()[%d] = %v, want %v", i, result[i], tt.want[i])
				}
			}
		})
	}
}

func TestSanitizer_SanitizeArgsDoesNotMutateInput(t *testing.T) {
	s := NewSanitizer()
	input := []any{"token", "abcdefghijk"}

	_ = s.SanitizeArgs(input)
	if input[1] != "abcdefghijk" {
		t.Errorf("input modified: %v", input)
	}
}

func TestSanitizer_AddRule(t *testing.T) {
	s := NewSanitizer()

	if err := s.AddRule(`deviceId=\w+`, "deviceId=***"); err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}

	input := "registered deviceId=abc123 ok"
	expected := "registered deviceId=*** ok"
	if result := s.Sanitize(input); result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}

	if err := s.AddRule(`(`, "x"); err == nil {
		t.Error("AddRule accepted an invalid pattern")
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ab", "***"},
		{"abc", "a***"},
		{"abcdefgh", "a***"},
		{"abcdefghi", "a***i"},
		{"verylongpassword", "v***d"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := maskValue(tt.input); result != tt.expected {
				t.Errorf("maskValue(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"password", true},
		{"client_secret", true},
		{"ACCESS_TOKEN", true},
		{"authorization", true},
		{"api_key", true},
		{"provider", false},
		{"path", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := isSensitiveKey(tt.input); result != tt.expected {
				t.Errorf("isSensitiveKey(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
