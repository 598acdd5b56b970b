// Package tesseract implements ocr.Recognizer with the Tesseract engine
// through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/teslashibe/go-camtext/pkg/ocr"
)

// Engine recognizes text with Tesseract. A fresh gosseract client is used
// per call since clients are not safe for concurrent use.
type Engine struct {
	config        *ocr.Config
	logger        *slog.Logger
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract-backed recognizer.
func New(opts ...ocr.Option) *Engine {
	cfg := ocr.DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		config:        cfg,
		logger:        cfg.Logger.With("component", "ocr.tesseract"),
		clientFactory: gosseract.NewClient,
	}
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

// Recognize converts img to grayscale and returns the trimmed text.
func (e *Engine) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()

	prepared, err := ocr.Preprocess(img, e.config.Scale)
	if err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if e.config.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.config.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(e.config.Languages) > 0 {
		if err := c.SetLanguage(e.config.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.config.PageSegMode)); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	e.logger.Debug("recognized frame",
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

// Close is a no-op; clients are released per call.
func (e *Engine) Close() error {
	return nil
}

// Verify Engine implements ocr.Recognizer at compile time.
var _ ocr.Recognizer = (*Engine)(nil)
