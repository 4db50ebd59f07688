package main

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/config"
	dbRedis "github.com/kailas-cloud/librarian/internal/db/redis"
	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/match"
	"github.com/kailas-cloud/librarian/internal/metrics"
	bookrepo "github.com/kailas-cloud/librarian/internal/repository/book"
	"github.com/kailas-cloud/librarian/internal/repository/embcache"
	summaryrepo "github.com/kailas-cloud/librarian/internal/repository/summary"
	openaiTransport "github.com/kailas-cloud/librarian/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/librarian/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/librarian/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/librarian/internal/usecase/ingest"
	moderationuc "github.com/kailas-cloud/librarian/internal/usecase/moderation"
	recommenduc "github.com/kailas-cloud/librarian/internal/usecase/recommend"
	speechuc "github.com/kailas-cloud/librarian/internal/usecase/speech"
)

// app is the composition root: process-scoped services built once and injected.
type app struct {
	store     *dbRedis.Store
	ingest    *ingestuc.Service
	recommend *recommenduc.Service
	speech    *speechuc.Service
	health    *healthuc.Service
}

// newApp connects to the store and wires every service.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OpenAI API key is not set; model calls will fail")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

	metrics.RegisterUpstreamMetrics()
	metrics.RegisterRecommendMetrics()

	client := openaiTransport.NewAPIClient(openaiTransport.ClientConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAITimeout(),
	})
	o := cfg.OpenAI

	embedder := buildEmbedder(client, cfg, store, logger)

	books := bookrepo.New(store, cfg.Database.KeyPrefix, o.Dimensions).WithHNSW(bookrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	summaries := summaryrepo.New(store, cfg.Database.KeyPrefix)

	policy, err := moderationuc.ParsePolicy(cfg.Recommend.OnModerationError)
	if err != nil {
		store.Close()
		return nil, err
	}
	safety := moderationuc.New(openaiTransport.NewModerator(client, o.ModerationModel), policy, logger)

	recommend := recommenduc.New(
		safety, embedder, books, summaries,
		openaiTransport.NewChatCompleter(client, o.ChatModel),
		match.NewGate(cfg.MinScore()),
		logger,
	)
	if cfg.ImageEnabled() {
		recommend.WithImages(openaiTransport.NewImageGenerator(client, o.ImageModel, o.ImageSize, o.ImageQuality))
	}

	var provider healthuc.ProviderChecker
	if o.APIKey != "" {
		provider = openaiTransport.NewProber(client)
	}

	logger.Info("Services created",
		zap.String("embedding_model", o.EmbeddingModel),
		zap.Int("dimensions", o.Dimensions),
		zap.String("chat_model", o.ChatModel),
		zap.String("image_model", o.ImageModel),
		zap.Bool("images", cfg.ImageEnabled()),
		zap.String("moderation_policy", string(policy)),
		zap.Float64("min_score", cfg.MinScore()),
	)

	return &app{
		store:     store,
		ingest:    ingestuc.New(books, embedder, summaries, logger),
		recommend: recommend,
		speech: speechuc.New(
			openaiTransport.NewSpeaker(client, o.TTSModel, o.TTSVoice),
			openaiTransport.NewTranscriber(client, o.STTModel),
		),
		health: healthuc.New(store, provider),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	client *openai.Client, cfg config.Config, store *dbRedis.Store, logger *zap.Logger,
) domain.Embedder {
	o := cfg.OpenAI

	// Base provider (with transport metrics built-in)
	var embedder domain.Embedder = openaiTransport.NewEmbedder(client, o.EmbeddingModel, o.Dimensions)

	if o.EmbeddingCache {
		embedder = embcache.New(
			embedder, store,
			embcache.Namespace(cfg.Database.KeyPrefix, o.EmbeddingModel),
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, o.EmbeddingModel, o.Dimensions, logger)
}
