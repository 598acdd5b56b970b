// Package ocr provides the text recognizer interface and the image
// preprocessing shared by OCR engines.
//
// Recognize returns the trimmed text found on an image. An empty string
// means nothing was recognized; it is a normal outcome, not an error.
package ocr

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrEmptyImage is returned when no image bytes are given.
	ErrEmptyImage = errors.New("ocr: empty image")

	// ErrDecode is returned when the image cannot be decoded.
	ErrDecode = errors.New("ocr: cannot decode image")
)

// Recognizer extracts text from an encoded image (JPEG or PNG).
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// Page segmentation modes understood by Tesseract.
const (
	PSMAuto        = 3
	PSMSingleBlock = 6
	PSMSingleLine  = 7
	PSMSparseText  = 11
)

// DefaultLanguage is the recognition language.
const DefaultLanguage = "eng"

// Config holds recognizer configuration.
type Config struct {
	// Languages passed to the engine, e.g. "eng".
	Languages []string

	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int

	// TessdataPrefix points the engine at a tessdata directory.
	// Empty uses the engine default (TESSDATA_PREFIX or the build path).
	TessdataPrefix string

	// Scale upsamples the grayscale image before recognition when > 1.
	Scale float64

	Logger *slog.Logger
}

// Option is a functional option for configuring recognizers.
type Option func(*Config)

// WithLanguages sets the recognition languages.
func WithLanguages(langs ...string) Option {
	return func(c *Config) {
		if len(langs) > 0 {
			c.Languages = append([]string(nil), langs...)
		}
	}
}

// WithPageSegMode sets the page segmentation mode.
func WithPageSegMode(mode int) Option {
	return func(c *Config) {
		c.PageSegMode = mode
	}
}

// WithTessdataPrefix sets the tessdata directory.
func WithTessdataPrefix(path string) Option {
	return func(c *Config) {
		c.TessdataPrefix = path
	}
}

// WithScale sets the upsampling factor.
func WithScale(scale float64) Option {
	return func(c *Config) {
		c.Scale = scale
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default recognizer configuration.
func DefaultConfig() *Config {
	return &Config{
		Languages:   []string{DefaultLanguage},
		PageSegMode: PSMAuto,
		Scale:       1,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
