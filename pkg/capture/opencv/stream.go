// Package opencv implements capture.Source on top of an OpenCV VideoCapture
// opened on a network stream URL (MJPEG over HTTP, RTSP, or anything the
// FFmpeg backend understands).
package opencv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-camtext/pkg/capture"
	"gocv.io/x/gocv"
)

// Config holds stream configuration.
type Config struct {
	// URL of the remote stream.
	URL string

	// BufferSize limits the number of frames OpenCV queues internally so a
	// read returns a recent frame. 0 leaves the backend default.
	BufferSize int

	// JPEGQuality used when encoding captured frames (1-100).
	JPEGQuality int

	Logger *slog.Logger
}

// DefaultConfig returns defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:         url,
		BufferSize:  1,
		JPEGQuality: 90,
		Logger:      slog.Default(),
	}
}

// frameReader is the part of gocv.VideoCapture a Stream reads through.
type frameReader interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Stream owns a single VideoCapture handle.
// VideoCapture is not safe for concurrent use, so reads are serialized.
// Which of two concurrent callers receives which frame is unspecified.
//
// A network read can block indefinitely. Opened never waits on it, but
// Close does: the handle is released only after the in-flight read returns.
type Stream struct {
	config Config
	logger *slog.Logger

	opened atomic.Bool

	mu     sync.Mutex // Protects vc, seq and closed
	vc     frameReader
	seq    uint64
	closed bool
}

// Open opens the stream. It never fails: when the stream cannot be opened
// the failure is logged and every later Capture returns capture.ErrNotOpened.
func Open(cfg Config) *Stream {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}

	s := &Stream{
		config: cfg,
		logger: cfg.Logger.With("component", "capture.opencv"),
	}

	vc, err := gocv.OpenVideoCapture(cfg.URL)
	if err != nil {
		s.logger.Warn("could not open video stream", "url", cfg.URL, "error", err)
		return s
	}
	if !vc.IsOpened() {
		vc.Close()
		s.logger.Warn("video stream not opened", "url", cfg.URL)
		return s
	}

	if cfg.BufferSize > 0 {
		vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}

	s.vc = vc
	s.opened.Store(true)
	s.logger.Info("video stream opened",
		"url", cfg.URL,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
		"backend", vc.CodecString(),
	)
	return s
}

// Capture reads one frame and returns it JPEG encoded.
func (s *Stream) Capture(ctx context.Context) (*capture.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, capture.ErrClosed
	}
	if s.vc == nil {
		return nil, capture.ErrNotOpened
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := s.vc.Read(&img); !ok {
		return nil, fmt.Errorf("%w: read failed", capture.ErrNoFrame)
	}
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty frame", capture.ErrNoFrame)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), s.config.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, so copy out.
	raw := buf.GetBytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	s.seq++
	frame := &capture.Frame{
		Seq:        s.seq,
		Data:       data,
		Width:      img.Cols(),
		Height:     img.Rows(),
		CapturedAt: time.Now(),
	}

	s.logger.Debug("captured frame",
		"seq", frame.Seq,
		"bytes", len(data),
		"width", frame.Width,
		"height", frame.Height,
	)

	return frame, nil
}

// Opened reports whether the handle is open. It does not block on a
// read in progress.
func (s *Stream) Opened() bool {
	return s.opened.Load()
}

// Close releases the handle. It is safe to call more than once.
func (s *Stream) Close() error {
	s.opened.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.vc == nil {
		return nil
	}
	err := s.vc.Close()
	s.vc = nil
	s.logger.Info("video stream released", "url", s.config.URL)
	return err
}

// Verify Stream implements capture.Source at compile time.
var _ capture.Source = (*Stream)(nil)
