package aisvc

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/generator"
)

const defaultAnthropicMaxTokens = 4096

// Anthropic completes prompts with the messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ generator.Provider = (*Anthropic)(nil) // interface compliance check

func NewAnthropic(conf core.AIConfig, httpClient *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(conf.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if conf.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.BaseURL))
	}
	model := anthropic.Model(conf.Model)
	if model == "" {
		model = anthropic.ModelClaude3_7SonnetLatest
	}
	maxTokens := int64(conf.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens // required by the API
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *Anthropic) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic messages")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
