package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/neura-assistant/internal/config"
	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/search/duckduckgo"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/search/tavily"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/vector/qdrant"
)

func TestProviderSelection(t *testing.T) {
	cfg := config.Config{
		LLMProvider:    "ollama",
		EmbedProvider:  "openai",
		LLMAPIKey:      "key",
		SearchProvider: "DuckDuckGo",
		VectorBackend:  "qdrant",
	}

	chat, err := newChatModel(cfg, nil)
	if err != nil {
		t.Fatalf("newChatModel() error = %v", err)
	}
	if _, ok := chat.(*ollama.ChatModel); !ok {
		t.Fatalf("expected ollama chat model, got %T", chat)
	}

	embedder, err := newEmbedder(cfg, nil)
	if err != nil {
		t.Fatalf("newEmbedder() error = %v", err)
	}
	if _, ok := embedder.(*openai.Embedder); !ok {
		t.Fatalf("expected openai embedder, got %T", embedder)
	}

	searcher, err := newWebSearcher(cfg, nil)
	if err != nil {
		t.Fatalf("newWebSearcher() error = %v", err)
	}
	if _, ok := searcher.(*duckduckgo.Client); !ok {
		t.Fatalf("expected duckduckgo searcher, got %T", searcher)
	}

	cfg.SearchProvider = ""
	searcher, _ = newWebSearcher(cfg, nil)
	if _, ok := searcher.(*tavily.Client); !ok {
		t.Fatalf("expected tavily as default searcher, got %T", searcher)
	}

	store, err := newVectorStore(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("newVectorStore() error = %v", err)
	}
	if _, ok := store.(*qdrant.Client); !ok {
		t.Fatalf("expected qdrant store, got %T", store)
	}
}

func TestUnknownProvidersAreConfigurationErrors(t *testing.T) {
	cfg := config.Config{LLMProvider: "bard", EmbedProvider: "word2vec", SearchProvider: "altavista", VectorBackend: "faiss"}

	if _, err := newChatModel(cfg, nil); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error for llm, got %v", err)
	}
	if _, err := newEmbedder(cfg, nil); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error for embedder, got %v", err)
	}
	if _, err := newWebSearcher(cfg, nil); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error for search, got %v", err)
	}
	if _, err := newVectorStore(context.Background(), cfg, nil, nil); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error for vector backend, got %v", err)
	}
}

func TestOpenAIChatModelRequiresKey(t *testing.T) {
	_, err := newChatModel(config.Config{LLMProvider: "openai"}, nil)
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error without api key, got %v", err)
	}
}

func TestResilienceConfigFromSettings(t *testing.T) {
	rc := resilienceConfig(config.Config{
		ResilienceRetryMaxAttempts:    5,
		ResilienceRetryInitialBackoff: 100 * time.Millisecond,
		ResilienceBreakerEnabled:      false,
		ResilienceBreakerMinRequests:  0,
	})
	if rc.RetryMaxAttempts != 5 || rc.RetryInitialBackoff != 100*time.Millisecond {
		t.Fatalf("unexpected retry settings %+v", rc)
	}
	if rc.BreakerEnabled {
		t.Fatalf("breaker must follow the setting")
	}
	if rc.BreakerMinRequests != 10 {
		t.Fatalf("expected default min requests, got %d", rc.BreakerMinRequests)
	}
}

func TestToDomainReferences(t *testing.T) {
	refs := toDomainReferences([]config.ReferenceAnswer{
		{Question: "How many layers are in the encoder?", Answer: "Six."},
	})
	if len(refs) != 1 || refs[0].Question != "How many layers are in the encoder?" || refs[0].Answer != "Six." {
		t.Fatalf("unexpected references %+v", refs)
	}
	if got := toDomainReferences(nil); len(got) != 0 {
		t.Fatalf("expected no references, got %+v", got)
	}
}
