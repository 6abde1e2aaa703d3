package record

import (
	"context"
	"testing"

	domrec "github.com/kailas-cloud/taginput/internal/domain/record"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	saddFn         func(ctx context.Context, key string, members ...string) error
	smembersFn     func(ctx context.Context, key string) ([]string, error)
	sreplaceFn     func(ctx context.Context, key string, members []string) error
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.saddFn != nil {
		return m.saddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SReplace(ctx context.Context, key string, members []string) error {
	if m.sreplaceFn != nil {
		return m.sreplaceFn(ctx, key, members)
	}
	return nil
}

func testSchema(t *testing.T) domrec.Schema {
	t.Helper()
	post, err := domrec.NewDescriptor("post", []string{"Title", "keywords"}, map[string]string{"tags": "tag"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	tag, err := domrec.NewDescriptor("tag", []string{"Title"}, nil)
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	s, err := domrec.NewSchema(post, tag)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, testSchema(t), "ti:")
	repo.newID = func() string { return "new-id" }
	return repo, ms
}

// hashesByKey serves HGetAllMulti from a fixed key -> hash map.
func hashesByKey(data map[string]map[string]string) func(context.Context, []string) ([]map[string]string, error) {
	return func(_ context.Context, keys []string) ([]map[string]string, error) {
		out := make([]map[string]string, len(keys))
		for i, k := range keys {
			out[i] = data[k]
		}
		return out, nil
	}
}
