package web

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-camtext/pkg/camtext"
)

// AudioRequest is the body of POST /get_audio. A missing text field is
// replaced by camtext.PlaceholderText.
type AudioRequest struct {
	Text *string `json:"text"`
}

// HealthResponse is the body of GET /health. TTSOK is only set when the
// request asks for a deep check with ?deep=1.
type HealthResponse struct {
	Status      string `json:"status"`
	StreamOpen  bool   `json:"stream_open"`
	LastTextLen int    `json:"last_text_len"`
	TTSOK       *bool  `json:"tts_ok,omitempty"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexHTML)
}

// handleGetText captures a frame and returns the recognized text.
// Capture failures are reported in the body with status 200.
func (s *Server) handleGetText(c *fiber.Ctx) error {
	res, err := s.svc.ExtractText(c.UserContext())
	if err != nil {
		return err
	}
	s.publish(res)
	return c.JSON(res)
}

// handleGetAudio synthesizes the posted text and streams back MP3.
func (s *Server) handleGetAudio(c *fiber.Ctx) error {
	var req AudioRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("decode audio request: %w", err)
		}
	}

	result, err := s.svc.Synthesize(c.UserContext(), camtext.TextOrPlaceholder(req.Text))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, result.Format.MIMEType())
	return c.SendStream(bytes.NewReader(result.Audio), len(result.Audio))
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	st := s.svc.Status()
	resp := HealthResponse{
		Status:      "ok",
		StreamOpen:  st.StreamOpen,
		LastTextLen: st.LastTextLen,
	}

	if c.QueryBool("deep") {
		ok := s.svc.CheckSpeech(c.UserContext()) == nil
		resp.TTSOK = &ok
		if !ok {
			resp.Status = "degraded"
		}
	}

	return c.JSON(resp)
}
