package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs
const (
	// ModelTurboV2_5 is the fastest English model.
	ModelTurboV2_5 = "eleven_turbo_v2_5"

	// ModelFlashV2_5 is the fastest multilingual model.
	ModelFlashV2_5 = "eleven_flash_v2_5"

	// ModelMultilingualV2 is the highest quality multilingual model.
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs implements Provider for ElevenLabs TTS.
type ElevenLabs struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewElevenLabs creates a new ElevenLabs TTS provider. Preset names from
// ElevenLabsVoices are resolved to voice IDs; an empty voice uses
// DefaultElevenLabsVoice.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelFlashV2_5
	cfg.VoiceID = DefaultElevenLabsVoice
	cfg.Apply(opts...)

	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultElevenLabsVoice
	}
	cfg.VoiceID = ResolveElevenLabsVoice(cfg.VoiceID)
	if cfg.ModelID == "" {
		cfg.ModelID = ModelFlashV2_5
	}
	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	return &ElevenLabs{
		config:  cfg,
		client:  cfg.client(),
		logger:  cfg.Logger.With("component", "tts.elevenlabs"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to MP3 audio at 44.1kHz.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := checkText(providerElevenLabs, text); err != nil {
		return nil, err
	}
	begin := time.Now()

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(e.config.VoiceID), EncodingMP3_44)

	body, err := json.Marshal(e.buildPayload(text))
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := doWithRetry(ctx, e.client, e.config, e.logger, providerElevenLabs,
		func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("create request: %w", err)
			}
			e.setHeaders(req)
			return req, nil
		},
		e.parseError,
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("read response: %w", err))
	}

	latency := elapsedMs(begin)
	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"model", e.config.ModelID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    MP3Format(44100),
		CharCount: len(text),
		LatencyMs: latency,
		Provider:  providerElevenLabs,
	}, nil
}

// Health checks API connectivity and API key validity.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/user", nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return e.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice ID.
func (e *ElevenLabs) VoiceID() string {
	return e.config.VoiceID
}

// ModelID returns the configured model ID.
func (e *ElevenLabs) ModelID() string {
	return e.config.ModelID
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

func (e *ElevenLabs) buildPayload(text string) elevenLabsRequest {
	return elevenLabsRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       e.config.VoiceSettings.Stability,
			SimilarityBoost: e.config.VoiceSettings.SimilarityBoost,
			Speed:           e.config.VoiceSettings.Speed,
		},
	}
}

func (e *ElevenLabs) setHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", e.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", EncodingMP3_44.MIMEType())
}

// parseError reads and parses an error response.
func (e *ElevenLabs) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		message = errResp.Detail.Message
		code = errResp.Detail.Status
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerElevenLabs,
	}
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)
