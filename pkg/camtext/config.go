package camtext

import (
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-camtext/internal/config"
	"github.com/teslashibe/go-camtext/pkg/ocr"
	"github.com/teslashibe/go-camtext/pkg/tts"
)

// Default configuration values.
const (
	DefaultStreamURL    = "http://192.168.68.80:8080/video"
	DefaultSnapshotURL  = "http://192.168.68.80:8080/shot.jpg"
	DefaultPort         = 8000
	DefaultTextTimeout  = 30 * time.Second
	DefaultAudioTimeout = 60 * time.Second
	DefaultJPEGQuality  = 90
)

// Capture backends.
const (
	CaptureOpenCV   = "opencv"
	CaptureSnapshot = "snapshot"
)

// Config holds all configuration for the camtext service.
// Flag parsing is done in cmd/camtext/main.go; this struct is data only.
type Config struct {
	// Camera
	Capture     string // "opencv" or "snapshot"
	StreamURL   string
	SnapshotURL string
	BufferSize  int
	JPEGQuality int

	// HTTP
	Port int

	// OCR
	TessdataPrefix string
	OCRLanguages   []string
	OCRScale       float64

	// TTS
	TTSProvider string // provider name or comma separated fallback list
	TTSLanguage string
	TTSVoice    string

	// API keys (typically from environment variables).
	OpenAIKey     string
	ElevenLabsKey string
	GoogleAPIKey  string

	// Offload budgets and concurrency limit (0 = unbounded).
	TextTimeout  time.Duration
	AudioTimeout time.Duration
	MaxInFlight  int

	LogLevel string
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Capture:      CaptureOpenCV,
		StreamURL:    DefaultStreamURL,
		SnapshotURL:  DefaultSnapshotURL,
		BufferSize:   1,
		JPEGQuality:  DefaultJPEGQuality,
		Port:         DefaultPort,
		OCRLanguages: []string{ocr.DefaultLanguage},
		OCRScale:     1,
		TTSProvider:  tts.ProviderTranslate,
		TTSLanguage:  tts.DefaultLanguage,
		TextTimeout:  DefaultTextTimeout,
		AudioTimeout: DefaultAudioTimeout,
		LogLevel:     "info",
	}
}

// LoadEnvConfig applies environment overrides. Unset or unparsable
// variables leave the current value untouched.
func (c *Config) LoadEnvConfig() {
	c.Capture = strings.ToLower(config.String("CAMTEXT_CAPTURE", c.Capture))
	c.StreamURL = config.String("CAMTEXT_STREAM_URL", c.StreamURL)
	c.SnapshotURL = config.String("CAMTEXT_SNAPSHOT_URL", c.SnapshotURL)
	c.Port = config.Int("CAMTEXT_PORT", c.Port)

	c.TessdataPrefix = config.String("TESSDATA_PREFIX", c.TessdataPrefix)
	if langs := config.String("CAMTEXT_OCR_LANG", ""); langs != "" {
		c.OCRLanguages = strings.Split(langs, "+")
	}
	c.OCRScale = config.Float("CAMTEXT_OCR_SCALE", c.OCRScale)

	c.TTSProvider = config.String("CAMTEXT_TTS", c.TTSProvider)
	c.TTSLanguage = config.String("CAMTEXT_TTS_LANG", c.TTSLanguage)
	c.TTSVoice = config.String("CAMTEXT_TTS_VOICE", c.TTSVoice)

	c.OpenAIKey = config.String("OPENAI_API_KEY", c.OpenAIKey)
	c.ElevenLabsKey = config.String("ELEVENLABS_API_KEY", c.ElevenLabsKey)
	c.GoogleAPIKey = config.String("GOOGLE_API_KEY", c.GoogleAPIKey)

	c.TextTimeout = config.Duration("CAMTEXT_TEXT_TIMEOUT", c.TextTimeout)
	c.AudioTimeout = config.Duration("CAMTEXT_AUDIO_TIMEOUT", c.AudioTimeout)
	c.MaxInFlight = config.Int("CAMTEXT_MAX_INFLIGHT", c.MaxInFlight)

	c.LogLevel = config.String("LOG_LEVEL", c.LogLevel)
}

// Validate checks that the configuration can build a service.
func (c *Config) Validate() error {
	switch c.Capture {
	case CaptureOpenCV:
		if c.StreamURL == "" {
			return &ConfigError{Field: "StreamURL", Message: "CAMTEXT_STREAM_URL must not be empty"}
		}
	case CaptureSnapshot:
		if c.SnapshotURL == "" {
			return &ConfigError{Field: "SnapshotURL", Message: "CAMTEXT_SNAPSHOT_URL must not be empty"}
		}
	default:
		return &ConfigError{Field: "Capture", Message: fmt.Sprintf("unknown capture backend %q (want opencv or snapshot)", c.Capture)}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("port %d out of range", c.Port)}
	}
	if c.OCRScale <= 0 {
		return &ConfigError{Field: "OCRScale", Message: "CAMTEXT_OCR_SCALE must be positive"}
	}
	if c.TextTimeout < 0 || c.AudioTimeout < 0 {
		return &ConfigError{Field: "Timeout", Message: "timeouts must not be negative"}
	}
	if c.MaxInFlight < 0 {
		return &ConfigError{Field: "MaxInFlight", Message: "CAMTEXT_MAX_INFLIGHT must not be negative"}
	}

	for _, name := range strings.Split(c.TTSProvider, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case tts.ProviderOpenAI:
			if c.OpenAIKey == "" {
				return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for OpenAI TTS"}
			}
		case tts.ProviderElevenLabs:
			if c.ElevenLabsKey == "" {
				return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs TTS"}
			}
		}
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
