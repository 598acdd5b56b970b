package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-camtext/internal/httpc"
)

// MaxSnapshotBytes caps a single snapshot download.
const MaxSnapshotBytes = 16 << 20

// Snapshot is a Source that fetches one still image per Capture from an
// HTTP endpoint, as exposed by most IP cameras next to their MJPEG stream.
type Snapshot struct {
	url    string
	client *http.Client
	logger *slog.Logger

	seq    atomic.Uint64
	mu     sync.RWMutex
	closed bool
}

// SnapshotOption configures a Snapshot source.
type SnapshotOption func(*Snapshot)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) SnapshotOption {
	return func(s *Snapshot) {
		s.client = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SnapshotOption {
	return func(s *Snapshot) {
		s.logger = logger
	}
}

// NewSnapshot creates a snapshot source for url.
func NewSnapshot(url string, opts ...SnapshotOption) *Snapshot {
	s := &Snapshot{
		url:    url,
		client: httpc.Client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "capture.snapshot")
	return s
}

// Capture downloads and validates one image.
func (s *Snapshot) Capture(ctx context.Context) (*Frame, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if s.url == "" {
		return nil, ErrNotOpened
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNotOpened, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot returned HTTP %d", ErrNoFrame, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %v", ErrNoFrame, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrNoFrame)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrNoFrame, err)
	}

	frame := &Frame{
		Seq:        s.seq.Add(1),
		Data:       data,
		Width:      cfg.Width,
		Height:     cfg.Height,
		CapturedAt: time.Now(),
	}

	s.logger.Debug("captured snapshot",
		"seq", frame.Seq,
		"bytes", len(data),
		"width", cfg.Width,
		"height", cfg.Height,
	)

	return frame, nil
}

// Opened reports whether a URL is configured and the source is not closed.
func (s *Snapshot) Opened() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url != "" && !s.closed
}

// Close marks the source closed and drops idle connections.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.client.CloseIdleConnections()
	return nil
}

// Verify Snapshot implements Source at compile time.
var _ Source = (*Snapshot)(nil)
