package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/book"
	"github.com/kailas-cloud/librarian/internal/domain/catalog"
)

// Options control a full ingestion run.
type Options struct {
	CatalogPath string
	SummaryPath string // optional
	Recreate    bool   // drop the collection and its entries first
}

// Result reports what an ingestion run wrote.
type Result struct {
	Books     int
	Summaries int
	Created   bool
}

// Service loads the catalog into the vector store.
type Service struct {
	books     Collection
	embed     domain.Embedder
	summaries SummaryLoader
	logger    *zap.Logger
}

// New creates an ingestion service. summaries can be nil.
func New(books Collection, embed domain.Embedder, summaries SummaryLoader, logger *zap.Logger) *Service {
	return &Service{books: books, embed: embed, summaries: summaries, logger: logger}
}

// Run ingests the catalog file and then the summary table.
// A summary table that fails to load is logged and skipped; lookups then
// report the summary as unavailable.
func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Recreate {
		if err := s.books.Reset(ctx); err != nil {
			return Result{}, fmt.Errorf("reset collection: %w", err)
		}
		s.logger.Info("Collection dropped for re-ingestion")
	}

	res, err := s.IngestFile(ctx, opts.CatalogPath)
	if err != nil {
		return Result{}, err
	}

	if s.summaries != nil && opts.SummaryPath != "" {
		n, err := s.summaries.Load(ctx, opts.SummaryPath)
		if err != nil {
			s.logger.Warn("Full summaries not loaded",
				zap.String("path", opts.SummaryPath),
				zap.Error(err),
			)
		} else {
			res.Summaries = n
			s.logger.Info("Full summaries loaded", zap.Int("count", n))
		}
	}
	return res, nil
}

// IngestFile parses the catalog at path and ingests it.
func (s *Service) IngestFile(ctx context.Context, path string) (Result, error) {
	books, err := catalog.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read catalog: %w", err)
	}

	res, err := s.Ingest(ctx, books)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info(fmt.Sprintf("Ingested %d books", res.Books), zap.String("path", path))
	return res, nil
}

// Ingest embeds every book and stores all entries in one batch.
// The collection is ensured even when books is empty.
func (s *Service) Ingest(ctx context.Context, books []book.Book) (Result, error) {
	created, err := s.books.EnsureCollection(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ensure collection: %w", err)
	}
	if created {
		s.logger.Info("Collection created")
	}
	if len(books) == 0 {
		return Result{Created: created}, nil
	}

	docs := make([]string, len(books))
	for i, b := range books {
		docs[i] = b.Document()
	}

	emb, err := domain.EmbedAll(ctx, s.embed, docs)
	if err != nil {
		return Result{}, fmt.Errorf("embed catalog: %w", err)
	}

	entries := make([]book.Entry, len(books))
	for i, b := range books {
		entries[i] = book.NewEntry(i, b, emb.Embeddings[i])
	}

	if err := s.books.UpsertBatch(ctx, entries); err != nil {
		return Result{}, fmt.Errorf("store catalog: %w", err)
	}

	s.logger.Debug("Catalog embedded",
		zap.Int("books", len(books)),
		zap.Int("total_tokens", emb.TotalTokens),
	)
	return Result{Books: len(entries), Created: created}, nil
}
