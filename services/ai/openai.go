package aisvc

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/generator"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI completes prompts with the chat completions API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

var _ generator.Provider = (*OpenAI)(nil) // interface compliance check

func NewOpenAI(conf core.AIConfig, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(conf.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if conf.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.BaseURL))
	}
	model := conf.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(conf.MaxTokens),
	}
}

func (p *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.maxTokens)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
