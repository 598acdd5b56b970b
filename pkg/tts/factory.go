package tts

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderTranslate  = providerTranslate
	ProviderGoogle     = providerGoogle
	ProviderOpenAI     = providerOpenAI
	ProviderElevenLabs = providerElevenLabs
	ProviderMock       = providerMock
)

// Credentials carries per-provider API keys for NewFromList.
type Credentials struct {
	OpenAI     string
	ElevenLabs string
	Google     string
}

func (c Credentials) key(name string) string {
	switch name {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderElevenLabs:
		return c.ElevenLabs
	case ProviderGoogle:
		return c.Google
	default:
		return ""
	}
}

// New builds a single provider by name.
func New(ctx context.Context, name string, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderTranslate:
		return NewTranslate(opts...)
	case ProviderGoogle:
		return NewGoogle(ctx, opts...)
	case ProviderOpenAI:
		return NewOpenAI(opts...)
	case ProviderElevenLabs:
		return NewElevenLabs(opts...)
	case ProviderMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// NewFromList builds a provider from a comma separated list of names.
// A single name returns that provider; several return a Chain tried in
// order. Each provider receives its own key from creds plus opts.
func NewFromList(ctx context.Context, list string, creds Credentials, opts ...Option) (Provider, error) {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		names = []string{ProviderTranslate}
	}

	var providers []Provider
	for _, name := range names {
		popts := opts
		if key := creds.key(name); key != "" {
			popts = append(append([]Option(nil), opts...), WithAPIKey(key))
		}
		p, err := New(ctx, name, popts...)
		if err != nil {
			for _, built := range providers {
				built.Close()
			}
			return nil, fmt.Errorf("tts provider %s: %w", name, err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return NewChainWithLogger(cfg.Logger, providers...)
}
