// Package capture defines the frame source used to pull single frames from
// a remote camera stream.
//
// A Source holds one open handle for the lifetime of the process. Each
// Capture call makes exactly one read attempt; there is no retry and no
// reconnect. Implementations live in subpackages (opencv) or in this
// package (Snapshot, Mock).
package capture

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotOpened is returned when the stream handle was never opened.
	ErrNotOpened = errors.New("capture: stream not opened")

	// ErrNoFrame is returned when the handle produced no frame.
	ErrNoFrame = errors.New("capture: no frame available")

	// ErrClosed is returned by Capture after Close.
	ErrClosed = errors.New("capture: source closed")
)

// Source reads frames from a camera stream.
type Source interface {
	// Capture reads one frame. It returns ErrNotOpened, ErrNoFrame or
	// ErrClosed (possibly wrapped) when no frame could be produced.
	Capture(ctx context.Context) (*Frame, error)

	// Opened reports whether the underlying handle is usable. It must not
	// wait for a Capture in progress.
	Opened() bool

	// Close releases the handle.
	Close() error
}

// Frame is one JPEG encoded image read from a source.
type Frame struct {
	// Seq is a per-source sequence number starting at 1.
	Seq uint64

	// Data is the JPEG encoded frame.
	Data []byte

	Width  int
	Height int

	CapturedAt time.Time
}

// Size returns the encoded size in bytes.
func (f *Frame) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}
