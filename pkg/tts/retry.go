package tts

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// doWithRetry sends the request built by build, retrying on transport errors,
// HTTP 429 and 5xx up to maxRetries extra attempts. build is called once per
// attempt so request bodies are fresh. Non-retryable responses are returned
// to the caller as-is; exhausted retries return the last error.
func doWithRetry(
	ctx context.Context,
	client *http.Client,
	cfg *Config,
	logger *slog.Logger,
	provider string,
	build func() (*http.Request, error),
	parseError func(*http.Response) error,
) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := build()
		if err != nil {
			return nil, WrapError(provider, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, WrapError(provider, ctx.Err())
			}
			lastErr = WrapError(provider, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseError(resp)
			resp.Body.Close()
			if attempt < cfg.MaxRetries {
				logger.Warn("retrying request",
					"attempt", attempt+1,
					"status", resp.StatusCode,
				)
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}
