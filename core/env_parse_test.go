package core

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	const testKey = "TEST_GET_ENV_OR_DEFAULT"

	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{name: "returns env value when set", envValue: "custom_value", want: "custom_value"},
		{name: "returns default when empty", envValue: "", want: "default"},
		{name: "trims whitespace", envValue: "  spaced  ", want: "spaced"},
		{name: "blank counts as unset", envValue: "   ", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(testKey, tt.envValue)
			if got := GetEnvOrDefault(testKey, "default"); got != tt.want {
				t.Errorf("GetEnvOrDefault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseIntEnv(t *testing.T) {
	const testKey = "TEST_PARSE_INT_ENV"

	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"valid integer", "42", 42},
		{"negative integer", "-5", -5},
		{"invalid falls back", "abc", 7},
		{"empty falls back", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(testKey, tt.envValue)
			if got := ParseIntEnv(testKey, 7); got != tt.want {
				t.Errorf("ParseIntEnv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFloat64Env(t *testing.T) {
	const testKey = "TEST_PARSE_FLOAT_ENV"

	t.Setenv(testKey, "2.5")
	if got := ParseFloat64Env(testKey, 1); got != 2.5 {
		t.Errorf("ParseFloat64Env() = %v, want 2.5", got)
	}
	t.Setenv(testKey, "fast")
	if got := ParseFloat64Env(testKey, 1); got != 1 {
		t.Errorf("ParseFloat64Env(invalid) = %v, want 1", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	const testKey = "TEST_PARSE_BOOL_ENV"

	tests := []struct {
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"1", false, true},
		{"false", true, false},
		{"Off", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv(testKey, tt.envValue)
			if got := ParseBoolEnv(testKey, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	const testKey = "TEST_PARSE_DURATION_ENV"

	tests := []struct {
		envValue string
		want     time.Duration
	}{
		{"30", 30 * time.Second},
		{"90s", 90 * time.Second},
		{"2m", 2 * time.Minute},
		{"soon", 60 * time.Second},
		{"", 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv(testKey, tt.envValue)
			if got := ParseDurationEnv(testKey, 60); got != tt.want {
				t.Errorf("ParseDurationEnv(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}
