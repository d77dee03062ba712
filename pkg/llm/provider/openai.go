package provider

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/shopflow-ai/shopflow/pkg/llm"
)

const (
	defaultModel             = openai.GPT4oMini
	defaultTemperature       = 0.4
	defaultRequestTimeout    = 60 * time.Second
	defaultRequestsPerSecond = 2.0
	defaultBurst             = 4
)

// OpenAIConfig configures the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string

	// Model is the default model; overridable per request.
	Model string

	// Temperature is the default sampling temperature.
	Temperature float64

	// RequestTimeout bounds a single completion call.
	RequestTimeout time.Duration

	// RequestsPerSecond and Burst configure client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// OpenAIClient implements llm.Client against the OpenAI chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.RequestTimeout,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

// Chat performs a chat completion.
func (c *OpenAIClient) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	options := llm.Options{
		Model:       c.model,
		Temperature: c.temperature,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, buildRequest(messages, options))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}

// Close implements llm.Client.
func (c *OpenAIClient) Close() error {
	return nil
}

// buildRequest maps messages and options to the OpenAI request format.
func buildRequest(messages []llm.Message, options llm.Options) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       options.Model,
		Temperature: float32(options.Temperature),
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	// The transaction identifier rides along as the end-user tag so external
	// tooling can correlate calls; the orchestrator never reads it back.
	if tx := options.Metadata["transaction_id"]; tx != "" {
		req.User = tx
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}
	return req
}

func toOpenAIRole(role string) string {
	switch role {
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
