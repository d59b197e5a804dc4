package core

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	const testKey = "TEST_GET_ENV_OR_DEFAULT"
	defer os.Unsetenv(testKey)

	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue string
		want         string
	}{
		{
			name:         "returns env value when set",
			envValue:     "/srv/models",
			setEnv:       true,
			defaultValue: "./models",
			want:         "/srv/models",
		},
		{
			name:         "returns default when not set",
			setEnv:       false,
			defaultValue: "./models",
			want:         "./models",
		},
		{
			name:         "returns default when empty",
			envValue:     "",
			setEnv:       true,
			defaultValue: "./models",
			want:         "./models",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tt.setEnv {
				os.Setenv(testKey, tt.envValue)
			}
			got := GetEnvOrDefault(testKey, tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvOrDefault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseIntEnv(t *testing.T) {
	const testKey = "TEST_PARSE_INT_ENV"
	defer os.Unsetenv(testKey)

	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue int
		want         int
	}{
		{"valid positive integer", "8765", true, 80, 8765},
		{"valid negative integer", "-5", true, 0, -5},
		{"zero", "0", true, 2, 0},
		{"not set returns default", "", false, 2, 2},
		{"empty returns default", "", true, 2, 2},
		{"non-numeric returns default", "two", true, 2, 2},
		{"float returns default", "2.5", true, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tt.setEnv {
				os.Setenv(testKey, tt.envValue)
			}
			got := ParseIntEnv(testKey, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseIntEnv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseInt64Env(t *testing.T) {
	const testKey = "TEST_PARSE_INT64_ENV"
	defer os.Unsetenv(testKey)

	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue int64
		want         int64
	}{
		{"large value beyond int32", "9126805504", true, 0, 9126805504},
		{"not set returns default", "", false, 1024, 1024},
		{"garbage returns default", "8GB", true, 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tt.setEnv {
				os.Setenv(testKey, tt.envValue)
			}
			got := ParseInt64Env(testKey, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseInt64Env() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBoolEnv(t *testing.T) {
	const testKey = "TEST_PARSE_BOOL_ENV"
	defer os.Unsetenv(testKey)

	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue bool
		want         bool
	}{
		{"true lowercase", "true", true, false, true},
		{"true uppercase", "TRUE", true, false, true},
		{"one", "1", true, false, true},
		{"yes", "yes", true, false, true},
		{"on", "on", true, false, true},
		{"false lowercase", "false", true, true, false},
		{"zero", "0", true, true, false},
		{"no", "no", true, true, false},
		{"off", "off", true, true, false},
		{"whitespace trimmed", "  true  ", true, false, true},
		{"not set returns default true", "", false, true, true},
		{"not set returns default false", "", false, false, false},
		{"unrecognized returns default", "maybe", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tt.setEnv {
				os.Setenv(testKey, tt.envValue)
			}
			got := ParseBoolEnv(testKey, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseBoolEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	const testKey = "TEST_PARSE_DURATION_ENV"
	defer os.Unsetenv(testKey)

	tests := []struct {
		name           string
		envValue       string
		setEnv         bool
		defaultSeconds int
		want           time.Duration
	}{
		{"seconds value", "300", true, 0, 300 * time.Second},
		{"zero disables", "0", true, 60, 0},
		{"not set uses default", "", false, 60, 60 * time.Second},
		{"invalid uses default", "1h", true, 60, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tt.setEnv {
				os.Setenv(testKey, tt.envValue)
			}
			got := ParseDurationEnv(testKey, tt.defaultSeconds)
			if got != tt.want {
				t.Errorf("ParseDurationEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
