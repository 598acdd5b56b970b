package tts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-camtext/internal/httpc"
)

// DefaultLanguage is the fixed synthesis language.
const DefaultLanguage = "en"

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Voice configuration
	Language      string
	VoiceID       string
	ModelID       string
	VoiceSettings VoiceSettings

	// Transport
	HTTPClient *http.Client
	Timeout    time.Duration

	// Retry configuration. Zero retries by default.
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Speed is the speaking rate multiplier (1.0 = normal).
	Speed float64
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Speed:           1.0,
	}
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithLanguage sets the synthesis language (e.g. "en", "en-US").
func WithLanguage(lang string) Option {
	return func(c *Config) {
		if lang != "" {
			c.Language = lang
		}
	}
}

// WithVoice sets the voice ID or preset name.
func WithVoice(voiceID string) Option {
	return func(c *Config) {
		c.VoiceID = voiceID
	}
}

// WithModel sets the model ID.
func WithModel(modelID string) Option {
	return func(c *Config) {
		c.ModelID = modelID
	}
}

// WithVoiceSettings sets voice characteristics.
func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Config) {
		c.VoiceSettings = settings
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Language:      DefaultLanguage,
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       30 * time.Second,
		MaxRetries:    0,
		RetryDelay:    250 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ValidateWithVoice checks that both API key and voice ID are present.
func (c *Config) ValidateWithVoice() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}

// client returns the configured HTTP client or a new one with the timeout.
func (c *Config) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return httpc.NewClient(c.Timeout)
}
