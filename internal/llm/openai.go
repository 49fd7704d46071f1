// Package llm wraps the chat completion API behind a small interface.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/resilience"
)

// OpenAIClient implements Client against any OpenAI-compatible endpoint
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIClient creates a client from configuration
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.LLMModel,
		logger: observability.ComponentLogger("llm"),
	}
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends one chat completion request. It is attempted exactly once.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req)
		if req.ToolChoice != "" {
			chatReq.ToolChoice = req.ToolChoice
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.Error().Err(err).Str("error_class", resilience.Classify(err)).Str("model", c.model).Msg("Chat completion failed")
		return Response{}, &CallError{Model: c.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &CallError{Model: c.model, Err: errors.New("response contained no choices")}
	}

	msg := resp.Choices[0].Message
	out := Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("tool_calls", len(out.ToolCalls)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("latency", time.Since(start)).
		Msg("Chat completion finished")
	return out, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(req Request) []openai.Tool {
	out := make([]openai.Tool, 0, len(req.Tools))
	for _, d := range req.Tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}
