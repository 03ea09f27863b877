package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent relay configuration stored as config.toml
// in the .relay/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Provider ProviderConfig `toml:"provider"`
	Stream   StreamConfig   `toml:"stream"`
}

// ProviderConfig holds settings for the upstream chat completions provider.
type ProviderConfig struct {
	// BaseURL is the provider API root (e.g. "https://api.openai.com/v1").
	BaseURL string `toml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key. The key
	// itself is never written to the config file.
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	// Model is the model requested for completions.
	Model string `toml:"model,omitempty"`
}

// StreamConfig holds settings for the streaming decoder.
type StreamConfig struct {
	// IdleTimeoutMs is the maximum wait in milliseconds between successive
	// stream events before the call is considered stalled.
	IdleTimeoutMs uint `toml:"idle_timeout_ms,omitempty"`

	// ChannelCapacity bounds the response event channel.
	ChannelCapacity uint `toml:"channel_capacity,omitempty"`

	// ReadBufferSize is the transport read buffer size in bytes.
	ReadBufferSize uint `toml:"read_buffer_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"provider.base_url": {
		get: func(c *Config) string { return c.Provider.BaseURL },
		set: func(c *Config, v string) error { c.Provider.BaseURL = v; return nil },
	},
	"provider.api_key_env": {
		get: func(c *Config) string { return c.Provider.APIKeyEnv },
		set: func(c *Config, v string) error { c.Provider.APIKeyEnv = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"stream.idle_timeout_ms": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Stream.IdleTimeoutMs), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("stream.idle_timeout_ms must be an unsigned integer: %w", err)
			}
			c.Stream.IdleTimeoutMs = uint(n)
			return nil
		},
	},
	"stream.channel_capacity": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Stream.ChannelCapacity), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("stream.channel_capacity must be an unsigned integer: %w", err)
			}
			c.Stream.ChannelCapacity = uint(n)
			return nil
		},
	},
	"stream.read_buffer_size": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Stream.ReadBufferSize), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("stream.read_buffer_size must be an unsigned integer: %w", err)
			}
			c.Stream.ReadBufferSize = uint(n)
			return nil
		},
	},
}
