package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/metrics"
)

// ImageGenerator renders images with the image generation API.
type ImageGenerator struct {
	client  *openai.Client
	model   string
	size    string
	quality string
}

// NewImageGenerator creates an image adapter, e.g. for "gpt-image-1", "1024x1024", "low".
// Empty size or quality keep the API defaults.
func NewImageGenerator(client *openai.Client, model, size, quality string) *ImageGenerator {
	return &ImageGenerator{client: client, model: model, size: size, quality: quality}
}

// Generate renders one image for prompt and returns its decoded bytes.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req := openai.ImageRequest{
		Prompt:  prompt,
		Model:   g.model,
		N:       1,
		Size:    g.size,
		Quality: g.quality,
	}
	// gpt-image models always answer with b64_json and reject response_format
	if strings.HasPrefix(g.model, "dall-e") {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, req)
	if err = observe(metrics.OpImage, g.model, start, err); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, emptyResponse(metrics.OpImage)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %v: %w", err, domain.ErrUpstream)
	}
	return img, nil
}
