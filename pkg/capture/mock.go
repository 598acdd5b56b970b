package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"
)

// Mock implements Source for testing.
// Behaviour can be customized via CaptureFunc.
type Mock struct {
	// CaptureFunc is called when Capture is invoked.
	// If nil, Capture returns ErrNotOpened.
	CaptureFunc func(ctx context.Context) (*Frame, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	calls  int
	seq    uint64
	closed bool
}

// NewMock returns a mock that yields the given JPEG on every call.
func NewMock(jpegData []byte) *Mock {
	m := &Mock{}
	m.CaptureFunc = func(ctx context.Context) (*Frame, error) {
		m.mu.Lock()
		m.seq++
		seq := m.seq
		m.mu.Unlock()

		cfg, _, _ := image.DecodeConfig(bytes.NewReader(jpegData))
		return &Frame{
			Seq:        seq,
			Data:       jpegData,
			Width:      cfg.Width,
			Height:     cfg.Height,
			CapturedAt: time.Now(),
		}, nil
	}
	return m
}

// NewFailingMock returns a mock whose Capture always fails with err.
func NewFailingMock(err error) *Mock {
	return &Mock{
		CaptureFunc: func(ctx context.Context) (*Frame, error) {
			return nil, err
		},
	}
}

// Capture calls CaptureFunc and records the call.
func (m *Mock) Capture(ctx context.Context) (*Frame, error) {
	m.mu.Lock()
	m.calls++
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if m.CaptureFunc == nil {
		return nil, ErrNotOpened
	}
	return m.CaptureFunc(ctx)
}

// Opened reports whether a CaptureFunc is set and Close was not called.
func (m *Mock) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CaptureFunc != nil && !m.closed
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns the number of Capture invocations.
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

// SolidJPEG encodes a w x h image of a single color. Handy as a frame
// without any text on it.
func SolidJPEG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
