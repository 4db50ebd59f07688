package ingest

import (
	"context"

	"github.com/kailas-cloud/librarian/internal/domain/book"
)

// Collection is the vector store side of ingestion.
type Collection interface {
	EnsureCollection(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
	UpsertBatch(ctx context.Context, entries []book.Entry) error
}

// SummaryLoader imports the long-summary table.
type SummaryLoader interface {
	Load(ctx context.Context, path string) (int, error)
}
