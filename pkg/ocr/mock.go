package ocr

import (
	"context"
	"sync"
)

// Mock implements Recognizer for testing.
type Mock struct {
	// RecognizeFunc is called when Recognize is invoked.
	// If nil, Recognize returns "".
	RecognizeFunc func(ctx context.Context, image []byte) (string, error)

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewMock returns a mock that always recognizes text.
func NewMock(text string) *Mock {
	return &Mock{
		RecognizeFunc: func(ctx context.Context, image []byte) (string, error) {
			return text, nil
		},
	}
}

// WithError returns a mock whose Recognize always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		RecognizeFunc: func(ctx context.Context, image []byte) (string, error) {
			return "", err
		},
	}
}

// Recognize calls RecognizeFunc and records the call.
func (m *Mock) Recognize(ctx context.Context, image []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.RecognizeFunc == nil {
		return "", nil
	}
	return m.RecognizeFunc(ctx, image)
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls returns the number of Recognize invocations.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Recognizer at compile time.
var _ Recognizer = (*Mock)(nil)
