package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const keyPrefix = "neura:emb:"

// Store is the byte cache behind CachedEmbedder.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches query embeddings. Chunk embeddings pass through
// untouched. Cache errors are logged and never fail the call.
type CachedEmbedder struct {
	inner ports.Embedder
	store Store
	model string
	ttl   time.Duration
}

var _ ports.Embedder = (*CachedEmbedder)(nil)

func New(inner ports.Embedder, store Store, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, model: model, ttl: ttl}
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.Embed(ctx, texts)
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.model, text)

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "embedding_cache_get_failed", "error", err)
	} else if found {
		vector, decodeErr := decodeVector(raw)
		if decodeErr == nil {
			return vector, nil
		}
		slog.WarnContext(ctx, "embedding_cache_decode_failed", "error", decodeErr)
	}

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, encodeVector(vector), c.ttl); err != nil {
		slog.WarnContext(ctx, "embedding_cache_set_failed", "error", err)
	}
	return vector, nil
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
