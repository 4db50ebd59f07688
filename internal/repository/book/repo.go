package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/librarian/internal/db"
	"github.com/kailas-cloud/librarian/internal/domain"
	dombook "github.com/kailas-cloud/librarian/internal/domain/book"
	"github.com/kailas-cloud/librarian/internal/domain/match"
)

// Hash field names of a stored catalog entry.
const (
	fieldTitle    = "title"
	fieldDocument = "document"
	fieldVector   = "__vector"
	vectorAlias   = "vector"
)

// store is the consumer interface for the books collection (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores catalog entries in a cosine HNSW index.
// Implements usecase/ingest.Repository and usecase/recommend.Repository.
type Repo struct {
	store     store
	keys      domain.CollectionKeys
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a books repository. keyPrefix namespaces every key, e.g. "librarian:".
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{
		store:     s,
		keys:      domain.NewCollectionKeys(keyPrefix, domain.BooksCollection),
		vectorDim: vectorDim,
		hnsw:      HNSWConfig{M: 16, EFConstruct: 200},
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureCollection creates the index when absent. Reports whether it was created.
// A concurrent creator winning the race is not an error.
func (r *Repo) EnsureCollection(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.keys.Index())
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.keys.Index(), err)
	}
	if exists {
		return false, nil
	}

	def, err := r.indexDefinition()
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}

// Reset drops the index together with every stored entry. A missing index is not an error.
func (r *Repo) Reset(ctx context.Context) error {
	err := r.store.DropIndex(ctx, r.keys.Index(), true)
	if err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.keys.Index(), err)
	}
	return nil
}

// UpsertBatch writes all entries in one pipelined round-trip.
// Keys are derived from entry ids, so rewriting an id overwrites it in place.
func (r *Repo) UpsertBatch(ctx context.Context, entries []dombook.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector()) != r.vectorDim {
			return fmt.Errorf("%s: vector has %d dimensions, index expects %d", e.ID(), len(e.Vector()), r.vectorDim)
		}
		items = append(items, db.HashSetItem{
			Key: r.keys.Doc(e.ID()),
			Fields: map[string]string{
				fieldTitle:    e.Title(),
				fieldDocument: e.Document(),
				fieldVector:   db.VectorToBytes(e.Vector()),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store %d books: %w", len(items), err)
	}
	return nil
}

// Nearest returns up to k matches ordered nearest first.
// A collection that was never created holds no books and yields no matches.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]match.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.keys.Index(),
		VectorField:  vectorAlias,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldTitle, fieldDocument},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search %s: %w", domain.BooksCollection, err)
	}
	if sr == nil {
		return nil, nil
	}

	matches := make([]match.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		matches = append(matches, match.New(e.Fields[fieldTitle], e.Fields[fieldDocument], e.Distance))
	}
	return matches, nil
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.keys.Index()).
		Prefix(r.keys.DocPrefix()).
		CaseSensitiveTag(fieldTitle).
		VectorHNSW(fieldVector, r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).As(vectorAlias).
		Build()
}
