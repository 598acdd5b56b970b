package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	translateTTSURL   = "https://translate.google.com/translate_tts"
	providerTranslate = "translate"

	// TranslateMaxChars is the longest text the endpoint accepts per request.
	TranslateMaxChars = 100

	translateUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Translate implements Provider with the Google Translate speech endpoint.
// It needs no credentials. Text longer than TranslateMaxChars is split on
// word boundaries and the MP3 segments are concatenated.
type Translate struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewTranslate creates a Google Translate TTS provider.
func NewTranslate(opts ...Option) (*Translate, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = translateTTSURL
	}

	return &Translate{
		config:  cfg,
		client:  cfg.client(),
		logger:  cfg.Logger.With("component", "tts.translate"),
		baseURL: baseURL,
	}, nil
}

// Synthesize fetches every chunk in order and joins the audio.
func (t *Translate) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := checkText(providerTranslate, text); err != nil {
		return nil, err
	}
	begin := time.Now()

	chunks := SplitText(text, TranslateMaxChars)
	var audio bytes.Buffer
	for i, chunk := range chunks {
		data, err := t.fetch(ctx, chunk, i, len(chunks))
		if err != nil {
			return nil, err
		}
		audio.Write(data)
	}

	latency := elapsedMs(begin)
	t.logger.Debug("synthesized audio",
		"chars", len(text),
		"chunks", len(chunks),
		"bytes", audio.Len(),
		"latency_ms", latency,
		"lang", t.config.Language,
	)

	return &AudioResult{
		Audio:     audio.Bytes(),
		Format:    MP3Format(24000),
		CharCount: len(text),
		LatencyMs: latency,
		Provider:  providerTranslate,
	}, nil
}

func (t *Translate) fetch(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", t.config.Language)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))
	q.Set("client", "tw-ob")
	endpoint := t.baseURL + "?" + q.Encode()

	resp, err := doWithRetry(ctx, t.client, t.config, t.logger, providerTranslate,
		func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("User-Agent", translateUserAgent)
			req.Header.Set("Referer", "https://translate.google.com/")
			return req, nil
		},
		t.parseError,
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, t.parseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerTranslate, fmt.Errorf("read response: %w", err))
	}
	if len(data) == 0 {
		return nil, WrapError(providerTranslate, fmt.Errorf("empty audio for chunk %d/%d", idx+1, total))
	}
	return data, nil
}

// Health synthesizes a one word clip.
func (t *Translate) Health(ctx context.Context) error {
	_, err := t.fetch(ctx, "ok", 0, 1)
	return err
}

// Close releases idle connections.
func (t *Translate) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *Translate) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Provider:   providerTranslate,
	}
}

// SplitText breaks text into pieces of at most limit runes, preferring
// whitespace boundaries. Words longer than limit are cut.
func SplitText(text string, limit int) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, w := range words {
		wr := []rune(w)
		for len(wr) > limit {
			flush()
			chunks = append(chunks, string(wr[:limit]))
			wr = wr[limit:]
		}
		if len(wr) == 0 {
			continue
		}
		need := len(wr)
		if curLen > 0 {
			need++
		}
		if curLen+need > limit {
			flush()
			need = len(wr)
		}
		if curLen > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(string(wr))
		curLen += need
	}
	flush()
	return chunks
}

// Verify Translate implements Provider at compile time.
var _ Provider = (*Translate)(nil)
