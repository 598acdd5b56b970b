// Package camtext ties a frame source, a text recognizer and a speech
// synthesizer together behind the two operations the HTTP layer exposes:
// extract the text visible on the camera, and speak a piece of text.
package camtext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-camtext/pkg/capture"
	"github.com/teslashibe/go-camtext/pkg/ocr"
	"github.com/teslashibe/go-camtext/pkg/offload"
	"github.com/teslashibe/go-camtext/pkg/tts"
)

// Status messages returned with a TextResult.
const (
	MsgExtracted     = "Text extracted successfully"
	MsgNoText        = "No text detected"
	MsgCaptureFailed = "Failed to capture frame"
)

// PlaceholderText is spoken when a request carries no text.
const PlaceholderText = "No text provided"

// TextResult is the outcome of one Get Text call.
// ExtractedText is nil when nothing was captured or recognized.
type TextResult struct {
	ExtractedText *string `json:"extracted_text"`
	Message       string  `json:"message"`
}

// Text returns the extracted text or "".
func (r TextResult) Text() string {
	if r.ExtractedText == nil {
		return ""
	}
	return *r.ExtractedText
}

// Status is a point-in-time view of the service for health checks.
type Status struct {
	StreamOpen  bool
	LastTextLen int
}

// Service owns the capture handle, the recognizer, the synthesizer and
// the last extracted text.
type Service struct {
	source     capture.Source
	recognizer ocr.Recognizer
	speaker    tts.Provider

	textPool  *offload.Pool
	audioPool *offload.Pool
	logger    *slog.Logger

	mu       sync.RWMutex
	lastText string

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	textBudget  time.Duration
	audioBudget time.Duration
	maxInFlight int64
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*options)

// WithTextBudget bounds each capture and each recognition call.
func WithTextBudget(d time.Duration) Option {
	return func(o *options) { o.textBudget = d }
}

// WithAudioBudget bounds each synthesis call.
func WithAudioBudget(d time.Duration) Option {
	return func(o *options) { o.audioBudget = d }
}

// WithMaxInFlight limits concurrent offloaded calls per pool (0 = unbounded).
func WithMaxInFlight(n int) Option {
	return func(o *options) { o.maxInFlight = int64(n) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a service. The service takes ownership of all three
// components and closes them in Close.
func New(source capture.Source, recognizer ocr.Recognizer, speaker tts.Provider, opts ...Option) *Service {
	o := options{
		textBudget:  DefaultTextTimeout,
		audioBudget: DefaultAudioTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Service{
		source:     source,
		recognizer: recognizer,
		speaker:    speaker,
		textPool:   offload.New(o.textBudget, o.maxInFlight),
		audioPool:  offload.New(o.audioBudget, o.maxInFlight),
		logger:     o.logger.With("component", "camtext"),
	}
}

// ExtractText captures one frame and recognizes the text on it.
//
// A capture failure is a normal outcome: the result has no text and a
// message naming the failure. Recognition errors, budget overruns and
// cancellation are returned as errors.
func (s *Service) ExtractText(ctx context.Context) (TextResult, error) {
	frame, err := offload.Do(ctx, s.textPool, s.source.Capture)
	if err != nil {
		if unexpected(ctx, err) {
			return TextResult{}, fmt.Errorf("capture: %w", err)
		}
		s.logger.Warn("frame capture failed", "error", err)
		return TextResult{
			Message: fmt.Sprintf("%s: %v", MsgCaptureFailed, err),
		}, nil
	}

	text, err := offload.Do(ctx, s.textPool, func(ctx context.Context) (string, error) {
		return s.recognizer.Recognize(ctx, frame.Data)
	})
	if err != nil {
		return TextResult{}, fmt.Errorf("recognize frame %d: %w", frame.Seq, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Debug("no text detected", "frame", frame.Seq, "bytes", frame.Size())
		return TextResult{Message: MsgNoText}, nil
	}

	s.mu.Lock()
	s.lastText = text
	s.mu.Unlock()

	s.logger.Info("text extracted", "frame", frame.Seq, "chars", len(text))
	return TextResult{ExtractedText: &text, Message: MsgExtracted}, nil
}

// Synthesize converts text to MP3 audio.
func (s *Service) Synthesize(ctx context.Context, text string) (*tts.AudioResult, error) {
	result, err := offload.Do(ctx, s.audioPool, func(ctx context.Context) (*tts.AudioResult, error) {
		return s.speaker.Synthesize(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	s.logger.Info("audio synthesized",
		"chars", result.CharCount,
		"bytes", len(result.Audio),
		"provider", result.Provider,
		"latency_ms", result.LatencyMs,
	)
	return result, nil
}

// LastText returns the most recent non-empty recognition.
func (s *Service) LastText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastText
}

// StreamOpen reports whether the capture handle is usable.
func (s *Service) StreamOpen() bool {
	return s.source.Opened()
}

// Status returns the health view.
func (s *Service) Status() Status {
	return Status{
		StreamOpen:  s.StreamOpen(),
		LastTextLen: len(s.LastText()),
	}
}

// CheckSpeech asks the synthesizer to verify connectivity and credentials.
// It runs under the audio budget.
func (s *Service) CheckSpeech(ctx context.Context) error {
	_, err := offload.Do(ctx, s.audioPool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.speaker.Health(ctx)
	})
	if err != nil {
		s.logger.Warn("speech health check failed", "error", err)
		return fmt.Errorf("speech health: %w", err)
	}
	return nil
}

// Close releases the capture handle, the recognizer and the synthesizer.
// It is safe to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(
			s.source.Close(),
			s.recognizer.Close(),
			s.speaker.Close(),
		)
	})
	return s.closeErr
}

// unexpected separates failures of the request itself from a camera that
// simply produced no frame.
func unexpected(ctx context.Context, err error) bool {
	var panicErr *offload.PanicError
	return errors.Is(err, offload.ErrBudgetExceeded) ||
		errors.As(err, &panicErr) ||
		ctx.Err() != nil
}

// TextOrPlaceholder returns text, or PlaceholderText when text is nil.
// An empty string is passed through so the synthesizer can reject it.
func TextOrPlaceholder(text *string) string {
	if text == nil {
		return PlaceholderText
	}
	return *text
}
