package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
)

const providerGoogle = "google"

// Google implements Provider with Google Cloud Text-to-Speech.
//
// Credentials are chosen in order: an explicit HTTP client (WithHTTPClient,
// used as-is), an API key (WithAPIKey), then application default
// credentials.
type Google struct {
	config  *Config
	service *texttospeech.Service
	logger  *slog.Logger
}

// NewGoogle creates a Google Cloud TTS provider.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	var clientOpts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, WrapError(providerGoogle, fmt.Errorf("default credentials: %w", err))
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}

	svc, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}

	return &Google{
		config:  cfg,
		service: svc,
		logger:  cfg.Logger.With("component", "tts.google"),
	}, nil
}

// Synthesize converts text to MP3 audio.
func (g *Google) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := checkText(providerGoogle, text); err != nil {
		return nil, err
	}
	begin := time.Now()

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: LanguageCode(g.config.Language),
			Name:         g.config.VoiceID,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  g.config.VoiceSettings.Speed,
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, g.convertError(err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio: %w", err))
	}

	sampleRate := 24000
	if resp.AudioConfig != nil && resp.AudioConfig.SampleRateHertz > 0 {
		sampleRate = int(resp.AudioConfig.SampleRateHertz)
	}

	latency := elapsedMs(begin)
	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", g.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    MP3Format(sampleRate),
		CharCount: len(text),
		LatencyMs: latency,
		Provider:  providerGoogle,
	}, nil
}

// Health lists the voices for the configured language.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.service.Voices.List().
		LanguageCode(LanguageCode(g.config.Language)).
		Context(ctx).
		Do()
	if err != nil {
		return g.convertError(err)
	}
	return nil
}

// Close releases resources.
func (g *Google) Close() error {
	return nil
}

func (g *Google) convertError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Provider:   providerGoogle,
		}
	}
	return WrapError(providerGoogle, err)
}

// LanguageCode expands a bare language ("en") into the BCP-47 tag Cloud
// TTS expects ("en-US"). Tags that already carry a region pass through.
func LanguageCode(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en-US"
	}
	if strings.Contains(lang, "-") {
		return lang
	}
	switch strings.ToLower(lang) {
	case "en":
		return "en-US"
	case "ja":
		return "ja-JP"
	case "ko":
		return "ko-KR"
	case "zh":
		return "cmn-CN"
	default:
		return strings.ToLower(lang) + "-" + strings.ToUpper(lang)
	}
}

// Verify Google implements Provider at compile time.
var _ Provider = (*Google)(nil)
