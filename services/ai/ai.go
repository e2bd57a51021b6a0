// Package aisvc adapts LLM APIs to generator.Provider.
package aisvc

import (
	"errors"
	"net/http"
	"time"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/generator"
)

// Providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const requestTimeout = 2 * time.Minute

var (
	ErrNoAPIKey        = errors.New("no AI API key configured")
	ErrUnknownProvider = errors.New("unknown AI provider")
)

// New returns the provider selected by conf.Provider.
// httpClient may be nil.
func New(conf core.AIConfig, httpClient *http.Client) (generator.Provider, error) {
	if conf.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	switch conf.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(conf, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropic(conf, httpClient), nil
	default:
		return nil, ErrUnknownProvider
	}
}
