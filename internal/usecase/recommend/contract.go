package recommend

import (
	"context"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/match"
)

// SafetyChecker is the content safety pre-check.
type SafetyChecker interface {
	IsOffensive(ctx context.Context, text string) bool
}

// Embedder vectorizes the user query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// BookFinder returns the catalog entries nearest to a vector, closest first.
type BookFinder interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]match.Match, error)
}

// SummaryReader looks up the long summary for a title. It never fails.
type SummaryReader interface {
	Get(ctx context.Context, title string) string
}

// ChatCompleter produces the explanation text.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ImageGenerator renders a cover illustration.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
