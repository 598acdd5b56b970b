package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const providerChain = "chain"

// Chain implements Provider by trying multiple providers in order.
// The first provider to return audio wins. Input errors such as
// ErrEmptyText stop the chain because no backend would accept the text.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain that tries providers in order.
// At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}

	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "tts.chain"),
	}, nil
}

// NewChainWithLogger creates a provider chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "tts.chain")
	return chain, nil
}

// Synthesize tries each provider until one succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := checkText(providerChain, text); err != nil {
		return nil, err
	}

	var errs []error
	for i, p := range c.providers {
		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded",
					"provider_index", i,
					"provider", result.Provider,
					"chars", len(text),
				)
			}
			return result, nil
		}

		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next",
			"provider_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Health checks all providers and returns error if all are unhealthy.
func (c *Chain) Health(ctx context.Context) error {
	var healthy int
	var lastErr error

	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			lastErr = err
		} else {
			healthy++
		}
	}

	if healthy == 0 {
		return fmt.Errorf("all %d providers unhealthy: %w", len(c.providers), lastErr)
	}

	c.logger.Debug("health check complete",
		"healthy", healthy,
		"total", len(c.providers),
	)

	return nil
}

// Close closes all providers.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Providers returns the list of providers in the chain.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// ChainError aggregates errors from all providers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "tts chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: all %d providers failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns every provider error so errors.Is matches any of them.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

// Verify Chain implements Provider at compile time.
var _ Provider = (*Chain)(nil)
