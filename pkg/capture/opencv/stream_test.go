//go:build integration

package opencv

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-camtext/pkg/capture"
)

// blockingReader stands in for a stalled network stream.
type blockingReader struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReader) Read(m *gocv.Mat) bool {
	close(r.entered)
	<-r.release
	return false
}

func (r *blockingReader) Close() error { return nil }

// TestOpenUnreachable checks that a dead stream is reported per call
// instead of failing at startup.
// Run with: go test -tags=integration ./pkg/capture/opencv/...
func TestOpenUnreachable(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1/video")
	s := Open(cfg)
	defer s.Close()

	if s.Opened() {
		t.Fatal("stream on a closed port should not be opened")
	}

	for i := 0; i < 3; i++ {
		_, err := s.Capture(context.Background())
		if !errors.Is(err, capture.ErrNotOpened) {
			t.Errorf("call %d: expected ErrNotOpened, got %v", i, err)
		}
	}
}

func TestOpenedDuringBlockedRead(t *testing.T) {
	reader := &blockingReader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := &Stream{
		config: DefaultConfig("http://camera.invalid/video"),
		logger: slog.Default(),
		vc:     reader,
	}
	s.opened.Store(true)

	captured := make(chan error, 1)
	go func() {
		_, err := s.Capture(context.Background())
		captured <- err
	}()
	<-reader.entered

	opened := make(chan bool, 1)
	go func() { opened <- s.Opened() }()

	select {
	case ok := <-opened:
		if !ok {
			t.Error("Opened() = false while the handle is open")
		}
	case <-time.After(time.Second):
		t.Fatal("Opened() blocked behind an in-flight read")
	}

	close(reader.release)
	if err := <-captured; !errors.Is(err, capture.ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Opened() {
		t.Error("Opened() = true after Close")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := Open(DefaultConfig("http://127.0.0.1:1/video"))
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.Capture(context.Background()); !errors.Is(err, capture.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

// TestLiveStream reads a frame from CAMTEXT_TEST_STREAM_URL when set.
func TestLiveStream(t *testing.T) {
	url := os.Getenv("CAMTEXT_TEST_STREAM_URL")
	if url == "" {
		t.Skip("CAMTEXT_TEST_STREAM_URL not set")
	}

	s := Open(DefaultConfig(url))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	frame, err := s.Capture(ctx)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if frame.Width == 0 || frame.Height == 0 || frame.Size() == 0 {
		t.Errorf("unexpected frame: %dx%d, %d bytes", frame.Width, frame.Height, frame.Size())
	}
	t.Logf("captured %dx%d frame (%d bytes)", frame.Width, frame.Height, frame.Size())
}
