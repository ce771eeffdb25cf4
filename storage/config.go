package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds the tunables for a replacer/hash-table pair: capacities,
// the LRU-K horizon, and the ambient logging/metrics knobs.
type Config struct {
	// Replacer Configuration
	ReplacerCapacity int `json:"replacer_capacity"` // Max distinct frame IDs tracked
	ReplacerK int `json:"replacer_k"` // LRU-K history horizon

	// Hash Table Configuration
	HashBucketSize int `json:"hash_bucket_size"` // Max entries per bucket before a split

	// Performance Configuration
	EnableMetrics bool `json:"enable_metrics"` // Whether to collect performance metrics
	LogLevel string `json:"log_level"` // Log level (debug, info, warn, error)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ReplacerCapacity: 128,
		ReplacerK: 2,
		HashBucketSize: 4,
		EnableMetrics: true,
		LogLevel: "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	err = json.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables,
// falling back to defaults for anything unset.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("BUFCORE_REPLACER_CAPACITY"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.ReplacerCapacity = size
		}
	}

	if val := os.Getenv("BUFCORE_REPLACER_K"); val != "" {
		if k, err := strconv.Atoi(val); err == nil {
			config.ReplacerK = k
		}
	}

	if val := os.Getenv("BUFCORE_HASH_BUCKET_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.HashBucketSize = size
		}
	}

	if val := os.Getenv("BUFCORE_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("BUFCORE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.ReplacerCapacity <= 0 {
		return fmt.Errorf("replacer capacity must be greater than 0")
	}

	if c.ReplacerK < 1 {
		return fmt.Errorf("replacer k must be at least 1")
	}

	if c.HashBucketSize <= 0 {
		return ErrInvalidBucketSize("Config.Validate", c.HashBucketSize)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info": true,
		"warn": true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		ReplacerCapacity: c.ReplacerCapacity,
		ReplacerK: c.ReplacerK,
		HashBucketSize: c.HashBucketSize,
		EnableMetrics: c.EnableMetrics,
		LogLevel: c.LogLevel,
	}
}
