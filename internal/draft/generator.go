package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/broker-catalog/internal/resilience"
	"github.com/sells-group/broker-catalog/pkg/anthropic"
)

// Generator turns a system and user prompt into reply text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// AnthropicGenerator drafts with the Anthropic Messages API.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicGenerator creates a generator for model.
func NewAnthropicGenerator(client anthropic.Client, model string, maxTokens int64, temperature float64) *AnthropicGenerator {
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	temp := g.temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      []anthropic.SystemBlock{{Text: system}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(g.model, "draft")
	return resp.Text(), nil
}

// ChatCompleter is the part of the go-openai client the generator uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator drafts with any OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	client      ChatCompleter
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAIClient builds a go-openai client, optionally for a custom base URL.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIGenerator creates a generator for model.
func NewOpenAIGenerator(client ChatCompleter, model string, maxTokens int, temperature float64) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: float32(g.temperature),
	})
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAI marks rate limits and server errors as transient.
func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode) {
		return resilience.NewTransientError(eris.Wrap(err, "openai: chat completion"), apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && resilience.IsTransientHTTPStatus(reqErr.HTTPStatusCode) {
		return resilience.NewTransientError(eris.Wrap(err, "openai: chat completion"), reqErr.HTTPStatusCode)
	}
	return eris.Wrap(err, "openai: chat completion")
}

// StubGenerator returns a canned draft. Used for offline runs.
type StubGenerator struct{}

func (StubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	first, _, _ := strings.Cut(prompt, "\n")
	return fmt.Sprintf("Subject: %s\n\nHello,\n\n%s\n\nBest regards", DefaultSubject, first), nil
}
