package summary

import (
	"context"
	"testing"

	"github.com/kailas-cloud/librarian/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn   func(ctx context.Context, key string, fields map[string]string) error
	hgetFn   func(ctx context.Context, key, field string) (string, error)
	delFn    func(ctx context.Context, key string) error
	renameFn func(ctx context.Context, src, dst string) error
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGet(ctx context.Context, key, field string) (string, error) {
	if m.hgetFn != nil {
		return m.hgetFn(ctx, key, field)
	}
	return "", db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Rename(ctx context.Context, src, dst string) error {
	if m.renameFn != nil {
		return m.renameFn(ctx, src, dst)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "librarian:"), ms
}
