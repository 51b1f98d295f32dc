// Package llm wraps the chat-completion API behind a narrow interface so
// the mapper can be tested against a stub.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/hpungsan/trail/internal/config"
	trailerr "github.com/hpungsan/trail/internal/errors"
)

// Classification calls use a low temperature for stable JSON output.
const temperature = 0.1

// Completion is one model response plus its token accounting.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Client issues a single system+user chat completion.
type Client interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (Completion, error)
	Model() string
}

// UsageRecorder persists per-call token usage. The db store satisfies it.
type UsageRecorder interface {
	RecordUsage(operation, model, runID string, inputTokens, outputTokens int64) error
}

// OpenAIClient talks to an OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds a client from the LLM config section. The
// OPENAI_API_KEY environment variable takes precedence over the file.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		key = cfg.APIKey
	}
	if key == "" {
		return nil, trailerr.NewInvalidRequest("no API key: set OPENAI_API_KEY or llm.api_key in config")
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends one system+user exchange and returns the trimmed reply.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, maxTokens int) (Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return Completion{}, trailerr.NewLLM(fmt.Errorf("completion request failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return Completion{}, trailerr.NewLLM(fmt.Errorf("completion returned no choices"))
	}

	return Completion{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
