package config

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultAPIKeyEnv = "OPENAI_API_KEY"
	defaultModel     = "gpt-4o-mini"

	defaultIdleTimeoutMs   = 300_000
	defaultChannelCapacity = 1600
	defaultReadBufferSize  = 8192
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Provider: ProviderConfig{
			BaseURL:   defaultBaseURL,
			APIKeyEnv: defaultAPIKeyEnv,
			Model:     defaultModel,
		},
		Stream: StreamConfig{
			IdleTimeoutMs:   defaultIdleTimeoutMs,
			ChannelCapacity: defaultChannelCapacity,
			ReadBufferSize:  defaultReadBufferSize,
		},
	}
}
