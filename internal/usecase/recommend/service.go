package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/match"
	"github.com/kailas-cloud/librarian/internal/domain/recommendation"
	"github.com/kailas-cloud/librarian/internal/logger"
	"github.com/kailas-cloud/librarian/internal/metrics"
)

// topK is the number of neighbours requested; only the nearest is considered.
const topK = 1

// Service turns a free-text query into a single book recommendation.
type Service struct {
	safety    SafetyChecker
	embed     Embedder
	books     BookFinder
	summaries SummaryReader
	chat      ChatCompleter
	images    ImageGenerator
	gate      match.Gate
	logger    *zap.Logger
}

// New creates a recommendation service without cover illustrations.
func New(
	safety SafetyChecker, embed Embedder, books BookFinder,
	summaries SummaryReader, chat ChatCompleter, gate match.Gate, logger *zap.Logger,
) *Service {
	return &Service{
		safety:    safety,
		embed:     embed,
		books:     books,
		summaries: summaries,
		chat:      chat,
		gate:      gate,
		logger:    logger,
	}
}

// WithImages enables cover illustrations. A nil generator disables them.
func (s *Service) WithImages(images ImageGenerator) *Service {
	s.images = images
	return s
}

// Recommend runs moderation, retrieval, gating and generation for query.
//
// Returns domain.ErrContentModerated when the safety check refuses the text
// and domain.ErrNoSuitableBook when nothing clears the score gate. Upstream
// failures are returned wrapped; a failed cover only drops the image.
func (s *Service) Recommend(ctx context.Context, query string) (recommendation.Recommendation, error) {
	log := logger.FromContextOr(ctx, s.logger)

	if s.safety.IsOffensive(ctx, query) {
		metrics.RecommendDecisionsTotal.WithLabelValues(metrics.DecisionModerated).Inc()
		log.Info("Query refused by moderation")
		return recommendation.Recommendation{}, domain.ErrContentModerated
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return recommendation.Recommendation{}, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.books.Nearest(ctx, emb.Embedding, topK)
	if err != nil {
		return recommendation.Recommendation{}, fmt.Errorf("nearest books: %w", err)
	}
	if len(matches) > 0 {
		metrics.RecommendScore.Observe(matches[0].Score())
	}

	decision, ok := s.gate.Evaluate(matches)
	if !ok {
		metrics.RecommendDecisionsTotal.WithLabelValues(metrics.DecisionRejected).Inc()
		fields := []zap.Field{zap.Int("matches", len(matches)), zap.Float64("min_score", s.gate.MinScore())}
		if len(matches) > 0 {
			fields = append(fields, zap.Float64("score", matches[0].Score()))
		}
		log.Info("No match cleared the score gate", fields...)
		return recommendation.Recommendation{}, domain.ErrNoSuitableBook
	}
	metrics.RecommendDecisionsTotal.WithLabelValues(metrics.DecisionAccepted).Inc()

	explanation, err := s.chat.Complete(ctx, systemPrompt,
		explanationPrompt(query, decision.Title(), decision.Document()))
	if err != nil {
		return recommendation.Recommendation{}, fmt.Errorf("explain recommendation: %w", err)
	}

	rec := recommendation.New(
		decision.Title(),
		explanation,
		s.summaries.Get(ctx, decision.Title()),
		decision.RoundedScore(),
	)

	log.Info("Book recommended",
		zap.String("title", decision.Title()),
		zap.Float64("score", decision.RoundedScore()),
	)

	return s.withCover(ctx, rec, decision), nil
}

func (s *Service) withCover(
	ctx context.Context, rec recommendation.Recommendation, decision match.Decision,
) recommendation.Recommendation {
	if s.images == nil {
		return rec
	}
	img, err := s.images.Generate(ctx, coverPrompt(decision.Title(), decision.Document()))
	if err != nil {
		metrics.ImageFailuresTotal.Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Cover generation failed",
			zap.String("title", decision.Title()),
			zap.Error(err),
		)
		return rec
	}
	return rec.WithImage(img)
}
