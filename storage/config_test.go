package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ReplacerCapacity != 128 {
		t.Errorf("Expected replacer capacity 128, got %d", config.ReplacerCapacity)
	}

	if config.ReplacerK != 2 {
		t.Errorf("Expected replacer k 2, got %d", config.ReplacerK)
	}

	if config.HashBucketSize != 4 {
		t.Errorf("Expected hash bucket size 4, got %d", config.HashBucketSize)
	}

	if !config.EnableMetrics {
		t.Error("Expected metrics to be enabled by default")
	}

	if config.LogLevel != "info" {
		t.Errorf("Expected log level 'info', got '%s'", config.LogLevel)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		config *Config
		expectError bool
	}{
		{
			name: "valid config",
			config: DefaultConfig(),
			expectError: false,
		},
		{
			name: "zero replacer capacity",
			config: &Config{
				ReplacerCapacity: 0,
				ReplacerK: 2,
				HashBucketSize: 4,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "zero replacer k",
			config: &Config{
				ReplacerCapacity: 10,
				ReplacerK: 0,
				HashBucketSize: 4,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "zero hash bucket size",
			config: &Config{
				ReplacerCapacity: 10,
				ReplacerK: 2,
				HashBucketSize: 0,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				ReplacerCapacity: 10,
				ReplacerK: 2,
				HashBucketSize: 4,
				LogLevel: "invalid",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	originalConfig := DefaultConfig()
	originalConfig.ReplacerCapacity = 200
	originalConfig.LogLevel = "debug"

	err := originalConfig.SaveToFile(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig, err := LoadConfigFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.ReplacerCapacity != 200 {
		t.Errorf("Expected replacer capacity 200, got %d", loadedConfig.ReplacerCapacity)
	}

	if loadedConfig.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", loadedConfig.LogLevel)
	}
}

func TestLoadConfigFromInvalidFile(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/config.json")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	originalVars := map[string]string{
		"BUFCORE_REPLACER_CAPACITY": os.Getenv("BUFCORE_REPLACER_CAPACITY"),
		"BUFCORE_REPLACER_K": os.Getenv("BUFCORE_REPLACER_K"),
		"BUFCORE_LOG_LEVEL": os.Getenv("BUFCORE_LOG_LEVEL"),
	}

	defer func() {
		for key, val := range originalVars {
			if val == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, val)
			}
		}
	}()

	os.Setenv("BUFCORE_REPLACER_CAPACITY", "500")
	os.Setenv("BUFCORE_REPLACER_K", "3")
	os.Setenv("BUFCORE_LOG_LEVEL", "debug")

	config := LoadConfigFromEnv()

	if config.ReplacerCapacity != 500 {
		t.Errorf("Expected replacer capacity 500, got %d", config.ReplacerCapacity)
	}

	if config.ReplacerK != 3 {
		t.Errorf("Expected replacer k 3, got %d", config.ReplacerK)
	}

	if config.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", config.LogLevel)
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	original.ReplacerCapacity = 500
	original.LogLevel = "debug"

	clone := original.Clone()

	if clone.ReplacerCapacity != original.ReplacerCapacity {
		t.Errorf("Clone replacer capacity mismatch: got %d, want %d",
			clone.ReplacerCapacity, original.ReplacerCapacity)
	}

	if clone.LogLevel != original.LogLevel {
		t.Errorf("Clone log level mismatch: got %s, want %s",
			clone.LogLevel, original.LogLevel)
	}

	clone.ReplacerCapacity = 1000

	if original.ReplacerCapacity == 1000 {
		t.Error("Modifying clone should not affect original")
	}
}

func TestEnvVarBooleanParsing(t *testing.T) {
	tests := []struct {
		name string
		value string
		expected bool
	}{
		{"true string", "true", true},
		{"1 string", "1", true},
		{"false string", "false", false},
		{"0 string", "0", false},
		{"other string", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("BUFCORE_ENABLE_METRICS", tt.value)
			defer os.Unsetenv("BUFCORE_ENABLE_METRICS")

			config := LoadConfigFromEnv()
			if config.EnableMetrics != tt.expected {
				t.Errorf("Expected EnableMetrics=%v for value '%s', got %v",
					tt.expected, tt.value, config.EnableMetrics)
			}
		})
	}
}
