package summary

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/librarian/internal/db"
)

// Messages returned in place of a summary. Lookups never fail the request.
const (
	NotAvailable    = "Book summary not available."
	accessErrPrefix = "Error accessing full summary: "
)

// store is the consumer interface for the summary table (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	Del(ctx context.Context, key string) error
	Rename(ctx context.Context, src, dst string) error
}

// Repo maps book titles to long-form summaries, kept in a single hash.
type Repo struct {
	store store
	key   string
}

// New creates a summary repository. keyPrefix namespaces the hash, e.g. "librarian:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, key: keyPrefix + "summaries"}
}

// Load replaces the table with the contents of a JSON object file
// mapping title to summary. Returns the number of summaries loaded.
func (r *Repo) Load(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read summaries %s: %w", path, err)
	}

	var table map[string]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return 0, fmt.Errorf("decode summaries %s: %w", path, err)
	}

	if len(table) == 0 {
		if err := r.store.Del(ctx, r.key); err != nil {
			return 0, fmt.Errorf("clear summaries: %w", err)
		}
		return 0, nil
	}

	// The live table is swapped in one RENAME; a failed write leaves it untouched.
	staging := r.key + ":staging"
	if err := r.store.Del(ctx, staging); err != nil {
		return 0, fmt.Errorf("clear staging summaries: %w", err)
	}
	if err := r.store.HSet(ctx, staging, table); err != nil {
		_ = r.store.Del(ctx, staging)
		return 0, fmt.Errorf("store summaries: %w", err)
	}
	if err := r.store.Rename(ctx, staging, r.key); err != nil {
		return 0, fmt.Errorf("publish summaries: %w", err)
	}
	return len(table), nil
}

// Get returns the summary for title. A missing title yields NotAvailable;
// a store failure yields the error text rather than an error.
func (r *Repo) Get(ctx context.Context, title string) string {
	s, err := r.store.HGet(ctx, r.key, title)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return NotAvailable
		}
		return accessErrPrefix + err.Error()
	}
	return s
}
