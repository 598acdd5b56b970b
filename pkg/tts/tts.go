// Package tts provides a unified interface for text-to-speech providers.
//
// Every provider returns the complete encoded clip (MP3) before Synthesize
// returns; nothing is streamed from the remote service. Supported backends
// are the Google Translate speech endpoint (no key), Google Cloud
// Text-to-Speech, OpenAI and ElevenLabs. All providers implement Provider so
// callers can switch backends without code changes.
//
// Example usage:
//
//	provider, _ := tts.New(ctx, "translate", tts.WithLanguage("en"))
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3 bytes
package tts

import (
	"context"
	"strings"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	// Empty or whitespace-only text fails with ErrEmptyText.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the total request time in milliseconds.
	LatencyMs int64

	// Provider names the backend that produced the audio.
	Provider string
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec.
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// MIMEType returns the content type for the format.
func (f AudioFormat) MIMEType() string {
	return f.Encoding.MIMEType()
}

// Encoding represents audio encoding types.
type Encoding string

const (
	EncodingMP3    Encoding = "mp3"           // MP3, provider chosen bitrate
	EncodingMP3_44 Encoding = "mp3_44100_128" // MP3 44.1kHz 128kbps (ElevenLabs)
	EncodingMP3_24 Encoding = "mp3_24000"     // MP3 24kHz (Google Translate, OpenAI)
)

// MIMEType converts the encoding to a MIME type. Every supported
// encoding is MP3.
func (e Encoding) MIMEType() string {
	return "audio/mpeg"
}

// MP3Format returns an MP3 format descriptor.
func MP3Format(sampleRate int) AudioFormat {
	enc := EncodingMP3
	switch sampleRate {
	case 24000:
		enc = EncodingMP3_24
	case 44100:
		enc = EncodingMP3_44
	}
	return AudioFormat{
		Encoding:   enc,
		SampleRate: sampleRate,
		Channels:   1,
	}
}

// checkText rejects input that no provider can speak.
func checkText(provider, text string) error {
	if strings.TrimSpace(text) == "" {
		return WrapError(provider, ErrEmptyText)
	}
	return nil
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
