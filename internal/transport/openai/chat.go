package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/librarian/internal/metrics"
)

// ChatCompleter generates text with the chat completions API.
type ChatCompleter struct {
	client *openai.Client
	model  string
}

// NewChatCompleter creates a chat adapter, e.g. for "gpt-4.1-nano".
func NewChatCompleter(client *openai.Client, model string) *ChatCompleter {
	return &ChatCompleter{client: client, model: model}
}

// Complete sends a system and a user message and returns the first reply.
func (c *ChatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err = observe(metrics.OpChat, c.model, start, err); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", emptyResponse(metrics.OpChat)
	}

	metrics.AddTokens(metrics.OpChat, c.model, resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
