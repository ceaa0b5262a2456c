package embcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	ttls   []time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.ttls = append(m.ttls, ttl)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	queryCalls int
	embedCalls int
	err        error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.embedCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.queryCalls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.25, -1.5, float32(len(text))}, nil
}

func TestEmbedQueryUsesCacheOnSecondCall(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemoryStore()
	cached := New(inner, store, "ollama/all-minilm", time.Hour)

	first, err := cached.EmbedQuery(context.Background(), "what is in the report")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	second, err := cached.EmbedQuery(context.Background(), "what is in the report")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if inner.queryCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.queryCalls)
	}
	if len(first) != 3 || len(second) != 3 || second[0] != 0.25 || second[1] != -1.5 || second[2] != first[2] {
		t.Fatalf("cached vector mismatch: %v vs %v", first, second)
	}
	if len(store.ttls) != 1 || store.ttls[0] != time.Hour {
		t.Fatalf("unexpected ttls %v", store.ttls)
	}
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	if cacheKey("a", "q") == cacheKey("b", "q") {
		t.Fatalf("cache key must include model")
	}
}

func TestEmbedQueryIgnoresStoreFailures(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")

	vector, err := New(inner, store, "m", 0).EmbedQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("store failure must not surface: %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestEmbedQueryIgnoresCorruptEntries(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemoryStore()
	store.data[cacheKey("m", "q")] = []byte{1, 2, 3}

	if _, err := New(inner, store, "m", 0).EmbedQuery(context.Background(), "q"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if inner.queryCalls != 1 {
		t.Fatalf("corrupt entry must fall through to the embedder")
	}
}

func TestEmbedQueryPropagatesEmbedderError(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("model offline")}
	store := newMemoryStore()

	if _, err := New(inner, store, "m", 0).EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatalf("expected embedder error")
	}
	if len(store.data) != 0 {
		t.Fatalf("failed embedding must not be cached")
	}
}

func TestEmbedPassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	vectors, err := New(inner, newMemoryStore(), "m", 0).Embed(context.Background(), []string{"a", "b"})
	if err != nil || len(vectors) != 2 || inner.embedCalls != 1 {
		t.Fatalf("Embed() = %v, %v, calls=%d", vectors, err, inner.embedCalls)
	}
}
