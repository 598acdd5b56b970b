package tts

import (
	"bytes"
	"context"
	"sync"
	"time"
)

const providerMock = "mock"

// mp3Frame is a single silent MPEG-1 Layer III frame header followed by
// padding. Enough for players and content sniffers to recognize MP3.
var mp3Frame = append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 413)...)

// SilentMP3 returns n silent MP3 frames.
func SilentMP3(n int) []byte {
	if n < 1 {
		n = 1
	}
	return bytes.Repeat(mp3Frame, n)
}

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns ErrProviderUnavailable.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a mock that returns one silent MP3 frame per word-ish
// chunk of text, rejecting blank input like the real providers do.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			if err := checkText(providerMock, text); err != nil {
				return nil, err
			}
			return &AudioResult{
				Audio:     SilentMP3(len(text)/10 + 1),
				Format:    MP3Format(44100),
				CharCount: len(text),
				LatencyMs: 1,
				Provider:  providerMock,
			}, nil
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.recordCall("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return nil, WrapError(providerMock, ErrProviderUnavailable)
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.recordCall("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// WithLatency wraps a mock to add artificial latency.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	originalSynthesize := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if originalSynthesize != nil {
			return originalSynthesize(ctx, text)
		}
		return nil, WrapError(providerMock, ErrProviderUnavailable)
	}
	return m
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
