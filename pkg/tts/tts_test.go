package tts_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-camtext/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
		if got := result.Format.MIMEType(); got != "audio/mpeg" {
			t.Errorf("expected audio/mpeg, got %s", got)
		}
	})

	t.Run("Blank text is rejected", func(t *testing.T) {
		_, err := mock.Synthesize(ctx, "   ")
		if !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		calls := mock.Calls()
		if len(calls) != 3 {
			t.Errorf("expected 3 calls, got %d", len(calls))
		}
		if mock.CallCount("Synthesize") != 2 {
			t.Errorf("expected 2 Synthesize calls, got %d", mock.CallCount("Synthesize"))
		}
		if last := mock.LastCall(); last == nil || last.Method != "Health" {
			t.Errorf("expected last call Health, got %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)
	ctx := context.Background()

	if _, err := mock.Synthesize(ctx, "Hello"); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(ctx); !errors.Is(err, testErr) {
		t.Errorf("expected test error from Health, got %v", err)
	}
}

func TestMockWithLatency(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock(), 50*time.Millisecond)

	t.Run("Synthesize has latency", func(t *testing.T) {
		start := time.Now()
		_, err := mock.Synthesize(context.Background(), "Hello")
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed < 50*time.Millisecond {
			t.Errorf("expected at least 50ms latency, got %v", elapsed)
		}
	})

	t.Run("Context cancellation works", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := mock.Synthesize(ctx, "Hello")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context deadline error, got %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := tts.DefaultConfig()

	if cfg.Language != "en" {
		t.Errorf("expected language en, got %s", cfg.Language)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.MaxRetries)
	}
	if cfg.VoiceSettings.Stability != 0.5 {
		t.Errorf("expected stability 0.5, got %f", cfg.VoiceSettings.Stability)
	}
	if cfg.VoiceSettings.Speed != 1.0 {
		t.Errorf("expected speed 1.0, got %f", cfg.VoiceSettings.Speed)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithVoice("test-voice"),
		tts.WithModel("test-model"),
		tts.WithTimeout(5*time.Second),
		tts.WithLanguage("fr"),
		tts.WithRetry(2, time.Second),
		tts.WithLogger(nil),
	)

	if cfg.VoiceID != "test-voice" {
		t.Errorf("expected voice test-voice, got %s", cfg.VoiceID)
	}
	if cfg.ModelID != "test-model" {
		t.Errorf("expected model test-model, got %s", cfg.ModelID)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.Language != "fr" {
		t.Errorf("expected language fr, got %s", cfg.Language)
	}
	if cfg.MaxRetries != 2 || cfg.RetryDelay != time.Second {
		t.Errorf("unexpected retry config: %d %v", cfg.MaxRetries, cfg.RetryDelay)
	}
	if cfg.Logger == nil {
		t.Error("expected Apply to restore a default logger")
	}

	cfg.Apply(tts.WithLanguage(""))
	if cfg.Language != "fr" {
		t.Errorf("empty language should be ignored, got %s", cfg.Language)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("Validate requires API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		if err := cfg.Validate(); err != tts.ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Validate passes with API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("ValidateWithVoice requires voice", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		if err := cfg.ValidateWithVoice(); err != tts.ErrNoVoiceID {
			t.Errorf("expected ErrNoVoiceID, got %v", err)
		}
	})

	t.Run("ValidateWithVoice passes with both", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		cfg.VoiceID = "test-voice"
		if err := cfg.ValidateWithVoice(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	t.Run("IsRateLimited", func(t *testing.T) {
		err := &tts.APIError{StatusCode: 429, Message: "rate limited"}
		if !err.IsRateLimited() {
			t.Error("expected IsRateLimited true")
		}
		if err.IsUnauthorized() {
			t.Error("expected IsUnauthorized false")
		}
	})

	t.Run("IsUnauthorized", func(t *testing.T) {
		err := &tts.APIError{StatusCode: 401, Message: "unauthorized"}
		if !err.IsUnauthorized() {
			t.Error("expected IsUnauthorized true")
		}
		if err.IsRetryable() {
			t.Error("expected 401 not retryable")
		}
	})

	t.Run("IsServerError", func(t *testing.T) {
		for _, code := range []int{500, 502, 503, 504} {
			err := &tts.APIError{StatusCode: code}
			if !err.IsServerError() {
				t.Errorf("expected IsServerError true for %d", code)
			}
			if !err.IsRetryable() {
				t.Errorf("expected IsRetryable true for %d", code)
			}
		}
	})

	t.Run("Error message format", func(t *testing.T) {
		err := &tts.APIError{
			StatusCode: 400,
			Message:    "bad request",
			Code:       "invalid_input",
			Provider:   "elevenlabs",
		}
		msg := err.Error()
		if msg != "tts [elevenlabs]: API error 400 (invalid_input): bad request" {
			t.Errorf("unexpected error message: %s", msg)
		}
	})
}

func TestEncodingMIMEType(t *testing.T) {
	tests := []struct {
		encoding tts.Encoding
		want     string
	}{
		{tts.EncodingMP3, "audio/mpeg"},
		{tts.EncodingMP3_44, "audio/mpeg"},
		{tts.EncodingMP3_24, "audio/mpeg"},
	}

	for _, tt := range tests {
		t.Run(string(tt.encoding), func(t *testing.T) {
			if got := tt.encoding.MIMEType(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMP3Format(t *testing.T) {
	if f := tts.MP3Format(44100); f.Encoding != tts.EncodingMP3_44 || f.Channels != 1 {
		t.Errorf("unexpected 44.1kHz format: %+v", f)
	}
	if f := tts.MP3Format(24000); f.Encoding != tts.EncodingMP3_24 {
		t.Errorf("unexpected 24kHz format: %+v", f)
	}
	if f := tts.MP3Format(16000); f.Encoding != tts.EncodingMP3 || f.SampleRate != 16000 {
		t.Errorf("unexpected 16kHz format: %+v", f)
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"short", "hello world", 100, []string{"hello world"}},
		{"collapses whitespace", " hello \n\t world ", 100, []string{"hello world"}},
		{"word boundary", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"long word is cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word mid text", "hi abcdefgh yo", 4, []string{"hi", "abcd", "efgh", "yo"}},
		{"multibyte runes", "héllo wörld", 5, []string{"héllo", "wörld"}},
		{"blank", "   ", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tts.SplitText(tt.text, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}

	t.Run("chunks respect limit", func(t *testing.T) {
		text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
		for _, chunk := range tts.SplitText(text, tts.TranslateMaxChars) {
			if n := len([]rune(chunk)); n > tts.TranslateMaxChars {
				t.Errorf("chunk of %d runes exceeds limit", n)
			}
		}
	})
}

func TestLanguageCode(t *testing.T) {
	tests := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"en-GB": "en-GB",
		"de":    "de-DE",
		"ja":    "ja-JP",
	}
	for in, want := range tests {
		if got := tts.LanguageCode(in); got != want {
			t.Errorf("LanguageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveElevenLabsVoice(t *testing.T) {
	if got := tts.ResolveElevenLabsVoice("rachel"); got != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("unexpected id for rachel: %s", got)
	}
	if got := tts.ResolveElevenLabsVoice("custom-id"); got != "custom-id" {
		t.Errorf("raw id should pass through, got %s", got)
	}
	if _, ok := tts.ElevenLabsVoices[tts.DefaultElevenLabsVoice]; !ok {
		t.Error("default voice should be a preset")
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("NewChain requires providers", func(t *testing.T) {
		_, err := tts.NewChain()
		if err != tts.ErrProviderUnavailable {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("First provider succeeds", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()

		chain, err := tts.NewChain(mock1, mock2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		if _, err := chain.Synthesize(ctx, "Hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mock1.CallCount("Synthesize") != 1 {
			t.Error("expected first provider to be called")
		}
		if mock2.CallCount("Synthesize") != 0 {
			t.Error("expected second provider not to be called")
		}
	})

	t.Run("Fallback on failure", func(t *testing.T) {
		failMock := tts.WithError(errors.New("provider 1 failed"))
		successMock := tts.NewMock()

		chain, err := tts.NewChain(failMock, successMock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		result, err := chain.Synthesize(ctx, "Hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Provider != tts.ProviderMock {
			t.Errorf("expected result from fallback provider, got %q", result.Provider)
		}
	})

	t.Run("Empty text stops the chain", func(t *testing.T) {
		mock1 := tts.NewMock()
		chain, _ := tts.NewChain(mock1, tts.NewMock())

		_, err := chain.Synthesize(ctx, "")
		if !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
		if mock1.CallCount("Synthesize") != 0 {
			t.Error("expected no provider to be called for empty text")
		}
	})

	t.Run("All providers fail", func(t *testing.T) {
		err1 := errors.New("fail 1")
		err2 := errors.New("fail 2")

		chain, err := tts.NewChain(tts.WithError(err1), tts.WithError(err2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		_, err = chain.Synthesize(ctx, "Hello")
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %v", err)
		}
		if len(chainErr.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(chainErr.Errors))
		}
		if !errors.Is(err, err1) || !errors.Is(err, err2) {
			t.Error("expected both provider errors to be reachable")
		}
	})

	t.Run("Health checks all providers", func(t *testing.T) {
		chain, err := tts.NewChain(tts.WithError(errors.New("down")), tts.NewMock())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := chain.Health(ctx); err != nil {
			t.Fatalf("one healthy provider should be enough: %v", err)
		}

		allDown, _ := tts.NewChain(tts.WithError(errors.New("down")))
		if err := allDown.Health(ctx); err == nil {
			t.Error("expected error when every provider is unhealthy")
		}
	})

	t.Run("Close closes every provider", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()
		chain, _ := tts.NewChain(mock1, mock2)

		if err := chain.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mock1.CallCount("Close") != 1 || mock2.CallCount("Close") != 1 {
			t.Error("expected both providers closed")
		}
	})
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection failed")
	err := tts.WrapError("elevenlabs", inner)

	if err.Error() != "tts [elevenlabs]: connection failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	var pe *tts.ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected ProviderError")
	}
	if pe.Provider != "elevenlabs" {
		t.Errorf("expected provider elevenlabs, got %s", pe.Provider)
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose inner error")
	}
	if tts.WrapError("x", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
