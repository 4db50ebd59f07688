package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/librarian/internal/metrics"
)

// Moderator classifies text with the moderation API.
type Moderator struct {
	client *openai.Client
	model  string
}

// NewModerator creates a moderation adapter, e.g. for "omni-moderation-latest".
func NewModerator(client *openai.Client, model string) *Moderator {
	return &Moderator{client: client, model: model}
}

// Flagged reports whether the moderation API flags text.
func (m *Moderator) Flagged(ctx context.Context, text string) (bool, error) {
	start := time.Now()
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: m.model,
	})
	if err = observe(metrics.OpModeration, m.model, start, err); err != nil {
		return false, err
	}
	if len(resp.Results) == 0 {
		return false, emptyResponse(metrics.OpModeration)
	}
	return resp.Results[0].Flagged, nil
}
