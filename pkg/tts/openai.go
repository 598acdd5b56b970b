package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

// OpenAI voice options
const (
	VoiceAlloy   = string(openai.VoiceAlloy)   // Neutral voice
	VoiceEcho    = string(openai.VoiceEcho)    // Male voice
	VoiceFable   = string(openai.VoiceFable)   // British accent
	VoiceOnyx    = string(openai.VoiceOnyx)    // Deep male voice
	VoiceNova    = string(openai.VoiceNova)    // Female voice
	VoiceShimmer = string(openai.VoiceShimmer) // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = string(openai.TTSModel1)   // Standard quality, faster
	ModelTTS1HD = string(openai.TTSModel1HD) // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceShimmer
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceShimmer
	}
	if cfg.ModelID == "" {
		cfg.ModelID = ModelTTS1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = cfg.client()

	return &OpenAI{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Synthesize converts text to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := checkText(providerOpenAI, text); err != nil {
		return nil, err
	}
	begin := time.Now()

	speed := o.config.VoiceSettings.Speed
	if speed <= 0 {
		speed = 1.0
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.ModelID),
		Input:          text,
		Voice:          openai.SpeechVoice(o.config.VoiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, o.convertError(err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	latency := elapsedMs(begin)
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    MP3Format(24000),
		CharCount: len(text),
		LatencyMs: latency,
		Provider:  providerOpenAI,
	}, nil
}

// Health checks API connectivity by listing models.
func (o *OpenAI) Health(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return o.convertError(err)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

// convertError maps go-openai errors onto APIError.
func (o *OpenAI) convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Code:       code,
			Provider:   providerOpenAI,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.HTTPStatus
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Provider:   providerOpenAI,
		}
	}

	return WrapError(providerOpenAI, err)
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
