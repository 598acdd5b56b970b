// Package app wires the camtext components from configuration and runs
// the HTTP server until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-camtext/pkg/camtext"
	"github.com/teslashibe/go-camtext/pkg/capture"
	"github.com/teslashibe/go-camtext/pkg/capture/opencv"
	"github.com/teslashibe/go-camtext/pkg/hub"
	"github.com/teslashibe/go-camtext/pkg/ocr"
	"github.com/teslashibe/go-camtext/pkg/ocr/tesseract"
	"github.com/teslashibe/go-camtext/pkg/tts"
	"github.com/teslashibe/go-camtext/pkg/web"
)

const shutdownTimeout = 10 * time.Second

// App is the camtext process orchestrator.
// It owns every component and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	service *camtext.Service
	feed    *hub.Hub
	server  *web.Server
}

// Config is the camtext configuration.
type Config = camtext.Config

// New validates cfg and returns an uninitialized App.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config: cfg,
		logger: logger.With("component", "app"),
	}, nil
}

// Init builds the frame source, recognizer, synthesizer and HTTP server.
// A camera that cannot be opened is logged, not fatal.
func (a *App) Init(ctx context.Context) error {
	speaker, err := tts.NewFromList(ctx, a.config.TTSProvider,
		tts.Credentials{
			OpenAI:     a.config.OpenAIKey,
			ElevenLabs: a.config.ElevenLabsKey,
			Google:     a.config.GoogleAPIKey,
		},
		tts.WithLanguage(a.config.TTSLanguage),
		tts.WithVoice(a.config.TTSVoice),
		tts.WithTimeout(a.config.AudioTimeout),
		tts.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("tts init: %w", err)
	}

	recognizer := tesseract.New(
		ocr.WithLanguages(a.config.OCRLanguages...),
		ocr.WithTessdataPrefix(a.config.TessdataPrefix),
		ocr.WithScale(a.config.OCRScale),
		ocr.WithLogger(a.logger),
	)

	source := a.openSource()

	a.service = camtext.New(source, recognizer, speaker,
		camtext.WithTextBudget(a.config.TextTimeout),
		camtext.WithAudioBudget(a.config.AudioTimeout),
		camtext.WithMaxInFlight(a.config.MaxInFlight),
		camtext.WithLogger(a.logger),
	)

	a.feed = hub.New("results", a.logger)
	a.server = web.NewServer(a.service,
		web.WithFeed(a.feed),
		web.WithLogger(a.logger),
	)

	a.logger.Info("camtext initialized",
		"capture", a.config.Capture,
		"stream_open", source.Opened(),
		"tesseract", tesseract.Version(),
		"tts", a.config.TTSProvider,
	)
	return nil
}

func (a *App) openSource() capture.Source {
	if a.config.Capture == camtext.CaptureSnapshot {
		return capture.NewSnapshot(a.config.SnapshotURL, capture.WithLogger(a.logger))
	}

	cfg := opencv.DefaultConfig(a.config.StreamURL)
	if a.config.BufferSize > 0 {
		cfg.BufferSize = a.config.BufferSize
	}
	if a.config.JPEGQuality > 0 {
		cfg.JPEGQuality = a.config.JPEGQuality
	}
	cfg.Logger = a.logger
	return opencv.Open(cfg)
}

// Run serves HTTP until ctx is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("app: Run called before Init")
	}

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go a.feed.Run(feedCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Listen(a.config.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// Shutdown releases the capture handle and the other components.
func (a *App) Shutdown() {
	if a.service == nil {
		return
	}
	if err := a.service.Close(); err != nil {
		a.logger.Warn("close failed", "error", err)
	}
	a.logger.Info("camtext stopped")
}
