package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/book"
)

// --- Mocks ---

type mockCollection struct {
	ensureFn func(ctx context.Context) (bool, error)
	upsertFn func(ctx context.Context, entries []book.Entry) error
	resetErr error

	ensureCalls int
	resetCalls  int
	upserts     [][]book.Entry
}

func (m *mockCollection) EnsureCollection(ctx context.Context) (bool, error) {
	m.ensureCalls++
	if m.ensureFn != nil {
		return m.ensureFn(ctx)
	}
	return true, nil
}

func (m *mockCollection) Reset(_ context.Context) error {
	m.resetCalls++
	return m.resetErr
}

func (m *mockCollection) UpsertBatch(ctx context.Context, entries []book.Entry) error {
	m.upserts = append(m.upserts, entries)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, entries)
	}
	return nil
}

type mockEmbedder struct {
	batchErr error
	texts    []string
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	m.texts = texts
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 3 * len(texts)}, nil
}

type mockSummaries struct {
	n    int
	err  error
	path string
}

func (m *mockSummaries) Load(_ context.Context, path string) (int, error) {
	m.path = path
	return m.n, m.err
}

// --- Helpers ---

func mustBook(t *testing.T, title, summary string) book.Book {
	t.Helper()
	b, err := book.New(title, summary)
	if err != nil {
		t.Fatalf("book.New: %v", err)
	}
	return b
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book_summaries.md")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

// --- Tests ---

func TestIngest(t *testing.T) {
	coll := &mockCollection{}
	emb := &mockEmbedder{}
	svc := New(coll, emb, nil, zap.NewNop())

	books := []book.Book{
		mustBook(t, "Dune", "A desert planet."),
		mustBook(t, "Emma", "Matchmaking."),
	}
	res, err := svc.Ingest(context.Background(), books)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Books != 2 || !res.Created {
		t.Errorf("result = %+v", res)
	}
	if emb.calls != 1 {
		t.Errorf("expected one batch embed call, got %d", emb.calls)
	}
	if emb.texts[0] != "Dune. A desert planet." || emb.texts[1] != "Emma. Matchmaking." {
		t.Errorf("embedded documents = %v", emb.texts)
	}
	if len(coll.upserts) != 1 {
		t.Fatalf("expected one batch write, got %d", len(coll.upserts))
	}
	entries := coll.upserts[0]
	if entries[0].ID() != "id-0" || entries[1].ID() != "id-1" {
		t.Errorf("ids = %s, %s", entries[0].ID(), entries[1].ID())
	}
	if entries[1].Title() != "Emma" || entries[1].Vector()[0] != 1 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestIngest_Empty(t *testing.T) {
	coll := &mockCollection{}
	emb := &mockEmbedder{}
	svc := New(coll, emb, nil, zap.NewNop())

	res, err := svc.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Books != 0 {
		t.Errorf("books = %d", res.Books)
	}
	if coll.ensureCalls != 1 {
		t.Error("collection must be ensured for empty input")
	}
	if emb.calls != 0 || len(coll.upserts) != 0 {
		t.Error("empty input must not embed or write")
	}
}

func TestIngest_Errors(t *testing.T) {
	boom := errors.New("boom")
	books := []book.Book{mustBook(t, "Dune", "Spice.")}

	t.Run("ensure", func(t *testing.T) {
		coll := &mockCollection{ensureFn: func(context.Context) (bool, error) { return false, boom }}
		if _, err := New(coll, &mockEmbedder{}, nil, zap.NewNop()).Ingest(context.Background(), books); !errors.Is(err, boom) {
			t.Fatalf("expected ensure error, got %v", err)
		}
	})

	t.Run("embed", func(t *testing.T) {
		coll := &mockCollection{}
		_, err := New(coll, &mockEmbedder{batchErr: boom}, nil, zap.NewNop()).Ingest(context.Background(), books)
		if !errors.Is(err, boom) {
			t.Fatalf("expected embed error, got %v", err)
		}
		if len(coll.upserts) != 0 {
			t.Error("nothing should be written after an embedding failure")
		}
	})

	t.Run("store", func(t *testing.T) {
		coll := &mockCollection{upsertFn: func(context.Context, []book.Entry) error { return boom }}
		if _, err := New(coll, &mockEmbedder{}, nil, zap.NewNop()).Ingest(context.Background(), books); !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

func TestIngestFile(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	coll := &mockCollection{}
	svc := New(coll, &mockEmbedder{}, nil, zap.New(core))

	path := writeCatalog(t, "## Title: Dune\nA desert planet.\n\n## Title: Emma\nMatchmaking.\n")
	res, err := svc.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Books != 2 {
		t.Errorf("books = %d", res.Books)
	}
	if logs.FilterMessage("Ingested 2 books").Len() != 1 {
		t.Errorf("expected ingest log line, got %v", logs.All())
	}
}

func TestIngestFile_Missing(t *testing.T) {
	svc := New(&mockCollection{}, &mockEmbedder{}, nil, zap.NewNop())

	if _, err := svc.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestRun(t *testing.T) {
	coll := &mockCollection{}
	sums := &mockSummaries{n: 5}
	svc := New(coll, &mockEmbedder{}, sums, zap.NewNop())

	path := writeCatalog(t, "## Title: Dune\nSpice.\n")
	res, err := svc.Run(context.Background(), Options{CatalogPath: path, SummaryPath: "full.json", Recreate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coll.resetCalls != 1 {
		t.Error("recreate should reset the collection")
	}
	if res.Books != 1 || res.Summaries != 5 {
		t.Errorf("result = %+v", res)
	}
	if sums.path != "full.json" {
		t.Errorf("summary path = %q", sums.path)
	}
}

func TestRun_SummaryFailureIsNotFatal(t *testing.T) {
	svc := New(&mockCollection{}, &mockEmbedder{}, &mockSummaries{err: errors.New("no file")}, zap.NewNop())

	path := writeCatalog(t, "## Title: Dune\nSpice.\n")
	res, err := svc.Run(context.Background(), Options{CatalogPath: path, SummaryPath: "missing.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Books != 1 || res.Summaries != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_ResetError(t *testing.T) {
	boom := errors.New("drop failed")
	svc := New(&mockCollection{resetErr: boom}, &mockEmbedder{}, nil, zap.NewNop())

	if _, err := svc.Run(context.Background(), Options{CatalogPath: "x", Recreate: true}); !errors.Is(err, boom) {
		t.Fatalf("expected reset error, got %v", err)
	}
}
