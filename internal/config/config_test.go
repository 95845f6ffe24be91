package config

import (
	"strconv"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.StateMaxBytes != 3900 {
		t.Errorf("StateMaxBytes = %d, want 3900", cfg.StateMaxBytes)
	}
	if cfg.CacheCapacity != 500 || cfg.CacheTTL != time.Hour {
		t.Errorf("cache defaults = %d/%v, want 500/1h", cfg.CacheCapacity, cfg.CacheTTL)
	}
	if cfg.RedisEnabled() {
		t.Error("redis mirror should be disabled without PROFILEQR_REDIS_ADDR")
	}
	if cfg.StateCookieName != "profileqr_state" {
		t.Errorf("StateCookieName = %q", cfg.StateCookieName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROFILEQR_GENERATE_LIMIT", "3")
	t.Setenv("PROFILEQR_MAX_BATCH_SIZE", "5")
	t.Setenv("PROFILEQR_REDIS_ADDR", "localhost:6379")
	t.Setenv("PROFILEQR_ALLOWED_ORIGINS", "https://a.example, 'https://b.example'")

	cfg := Load()

	if cfg.GenerateLimit != 3 {
		t.Errorf("GenerateLimit = %d, want 3", cfg.GenerateLimit)
	}
	if cfg.MaxBatchSize != 5 {
		t.Errorf("MaxBatchSize = %d, want 5", cfg.MaxBatchSize)
	}
	if !cfg.RedisEnabled() {
		t.Error("redis mirror should be enabled")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "redis password required but missing",
			env: map[string]string{
				"PROFILEQR_REDIS_ADDR":              "localhost:6379",
				"PROFILEQR_REDIS_PASSWORD_REQUIRED": "true",
			},
		},
		{
			name: "state ceiling above cookie limit",
			env:  map[string]string{"PROFILEQR_STATE_MAX_BYTES": "5000"},
		},
		{
			name: "state ceiling one byte over",
			env:  map[string]string{"PROFILEQR_STATE_MAX_BYTES": "3901"},
		},
		{
			name: "zero generate limit",
			env:  map[string]string{"PROFILEQR_GENERATE_LIMIT": "0"},
		},
		{
			name: "zero batch size",
			env:  map[string]string{"PROFILEQR_MAX_BATCH_SIZE": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestLoadStateCeiling(t *testing.T) {
	for _, v := range []string{"1", "1024", "3900"} {
		t.Setenv("PROFILEQR_STATE_MAX_BYTES", v)
		if got := Load().StateMaxBytes; strconv.Itoa(got) != v {
			t.Errorf("StateMaxBytes = %d, want %s", got, v)
		}
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{name: "valid integer", value: "42", def: 1, expected: 42},
		{name: "invalid integer uses default", value: "nope", def: 7, expected: 7},
		{name: "missing variable uses default", value: "", def: 9, expected: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_INT", tt.value)
			}
			if got := getenvInt("TEST_INT", tt.def); got != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_BOOL", tt.value)
			}
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a , "b",, 'c' `)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}
