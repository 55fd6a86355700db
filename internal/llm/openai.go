package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zbeam/zbeam/internal/errors"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
// Grok and DeepSeek both expose this wire format; the base URL selects the
// provider.
type OpenAIClient struct {
	model  string
	client openai.Client
}

// NewOpenAIClient builds a client for the given model, endpoint, and key.
func NewOpenAIClient(model, baseURL, apiKey string) (*OpenAIClient, error) {
	if model == "" {
		return nil, errors.NewConfigInvalid("generation.model", "required")
	}
	if apiKey == "" {
		return nil, errors.NewConfigInvalid("generation.api_key_env", "environment variable is empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		model:  model,
		client: openai.NewClient(opts...),
	}, nil
}

// Complete sends one chat completion and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(req.FrequencyPenalty)
	}
	if req.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(req.PresencePenalty)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.NewAPIFailure(c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewAPIFailure(c.model, nil)
	}
	return resp.Choices[0].Message.Content, nil
}
