// camtext serves OCR and text-to-speech for a network camera over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-camtext/internal/log"
	"github.com/teslashibe/go-camtext/pkg/app"
	"github.com/teslashibe/go-camtext/pkg/camtext"
)

func main() {
	os.Exit(run())
}

// run wires and runs the app, returning the process exit code so that
// deferred cleanup always happens before exit.
func run() int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := parseFlags()

	log.Init(cfg.LogLevel)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		logger.Error("initialization failed", "error", err)
		return 1
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		return 1
	}
	return 0
}

// parseFlags applies defaults, then the environment, then flags.
func parseFlags() camtext.Config {
	cfg := camtext.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.StringVar(&cfg.StreamURL, "stream", cfg.StreamURL, "Camera stream URL (CAMTEXT_STREAM_URL)")
	flag.StringVar(&cfg.Capture, "capture", cfg.Capture, "Capture backend: opencv or snapshot")
	flag.StringVar(&cfg.SnapshotURL, "snapshot", cfg.SnapshotURL, "Snapshot URL for the snapshot backend")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	flag.StringVar(&cfg.TessdataPrefix, "tessdata", cfg.TessdataPrefix, "Tesseract tessdata directory")
	flag.Float64Var(&cfg.OCRScale, "ocr-scale", cfg.OCRScale, "Upscale factor applied before OCR")
	flag.StringVar(&cfg.TTSProvider, "tts", cfg.TTSProvider, "TTS provider(s): translate, google, openai, elevenlabs (comma separated for fallback)")
	flag.StringVar(&cfg.TTSVoice, "tts-voice", cfg.TTSVoice, "Voice ID or preset name")
	flag.IntVar(&cfg.MaxInFlight, "max-inflight", cfg.MaxInFlight, "Concurrent blocking calls per kind (0 = unbounded)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	return cfg
}
