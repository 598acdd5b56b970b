// Package web serves the camtext HTTP API: the static page, text
// extraction, speech synthesis, health and the websocket result feed.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/teslashibe/go-camtext/pkg/camtext"
	"github.com/teslashibe/go-camtext/pkg/hub"
	"github.com/teslashibe/go-camtext/pkg/tts"
)

//go:embed static/index.html
var indexHTML []byte

// ErrorDetail is the body of every 500 response.
const ErrorDetail = "Internal Server Error"

// Service is the behaviour the handlers need from camtext.Service.
type Service interface {
	ExtractText(ctx context.Context) (camtext.TextResult, error)
	Synthesize(ctx context.Context, text string) (*tts.AudioResult, error)
	Status() camtext.Status
	CheckSpeech(ctx context.Context) error
}

// ResultEvent is pushed to /ws/results subscribers for every Get Text
// outcome.
type ResultEvent struct {
	ID            string    `json:"id"`
	ExtractedText *string   `json:"extracted_text"`
	Message       string    `json:"message"`
	Time          time.Time `json:"time"`
}

// Server is the camtext HTTP server.
type Server struct {
	app    *fiber.App
	svc    Service
	feed   *hub.Hub
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithFeed enables the websocket result feed backed by h.
// The caller runs the hub.
func WithFeed(h *hub.Hub) Option {
	return func(s *Server) {
		s.feed = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the fiber app and registers every route.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "web")

	app := fiber.New(fiber.Config{
		AppName:               "camtext",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/get_text", s.handleGetText)
	app.Post("/get_audio", s.handleGetAudio)
	app.Get("/health", s.handleHealth)

	if s.feed != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/results", websocket.New(s.feed.Serve))
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError turns every unexpected failure into a generic 500.
// Routing errors such as 404 keep their status.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code != fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	s.logger.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": ErrorDetail})
}

func (s *Server) publish(res camtext.TextResult) {
	if s.feed == nil {
		return
	}
	event := ResultEvent{
		ID:            uuid.NewString(),
		ExtractedText: res.ExtractedText,
		Message:       res.Message,
		Time:          time.Now().UTC(),
	}
	if err := s.feed.BroadcastJSON(event); err != nil {
		s.logger.Warn("result broadcast failed", "error", err)
	}
}
