package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/neura-assistant/internal/config"
	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
	"github.com/kirillkom/neura-assistant/internal/core/usecase"
	rediscache "github.com/kirillkom/neura-assistant/internal/infrastructure/cache/redis"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/embcache"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/search/duckduckgo"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/search/tavily"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/vector/pgvector"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/weather/openweather"
	"github.com/kirillkom/neura-assistant/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Repo        ports.DocumentRepository
	IngestUC    *usecase.IngestDocumentUseCase
	ProcessUC   ports.DocumentProcessor
	Router      ports.QueryAnswerer
	Index       ports.IndexStats
	HTTPMetrics *metrics.HTTPServerMetrics

	closers []func()
}

// New wires every adapter. On error the resources opened so far are released.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	profile, err := config.LoadRoutingProfile(cfg.RoutingProfileFile)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "load routing profile", err)
	}
	references, err := config.LoadReferenceSet(cfg.EvalReferenceFile)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "load evaluation references", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.onClose(func() { _ = db.Close() })

	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.onClose(queue.Close)

	chatModel, err := newChatModel(cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	embedder, err := newEmbedder(cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	if cfg.EmbedCacheRedisAddr != "" {
		store, err := rediscache.NewStore(cfg.EmbedCacheRedisAddr, cfg.EmbedCacheRedisPassword, 0)
		if err != nil {
			return nil, fmt.Errorf("init embedding cache: %w", err)
		}
		app.onClose(store.Close)
		embedder = embcache.New(embedder, store, cfg.EmbedModel, cfg.EmbedCacheTTL)
	}

	vectorDB, err := newVectorStore(ctx, cfg, db, executor)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	searcher, err := newWebSearcher(cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("init web search: %w", err)
	}

	var weather ports.WeatherProvider
	if client, err := openweather.New(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey, executor); err != nil {
		slog.Warn("weather_provider_disabled", "error", err.Error())
	} else {
		weather = client
	}

	extractors := extractor.NewRegistry().
		Register(pdf.NewExtractor(storage), ".pdf").
		Register(xlsx.NewExtractor(storage), ".xlsx").
		Register(plaintext.NewExtractor(storage), ".txt", ".md")
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	templates := usecase.PromptTemplates{
		Weather:   profile.Prompts.Weather,
		Document:  profile.Prompts.Document,
		WebSearch: profile.Prompts.WebSearch,
	}.Merge(usecase.DefaultPromptTemplates())

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	routerMetrics := metrics.NewRouterMetrics(httpMetrics.Registerer())
	router := usecase.NewQueryRouter(
		usecase.NewKeywordClassifier(vectorDB, profile.WeatherKeywords, cfg.ClassifyCountTimeout),
		usecase.NewWeatherContextSource(chatModel, weather, cfg.WeatherDefaultCity),
		usecase.NewDocumentContextSource(embedder, vectorDB, cfg.TopKRetrieval, cfg.MinScore),
		usecase.NewWebSearchContextSource(searcher, cfg.SearchMaxResults),
		usecase.NewLLMResponseGenerator(chatModel, templates),
		routerMetrics,
		usecase.RouterLimits{
			FetchTimeout:      cfg.ContextFetchTimeout,
			GenerationTimeout: cfg.GenerationTimeout,
		},
	)

	var answerer ports.QueryAnswerer = router
	if len(references) > 0 {
		evaluating := usecase.NewEvaluatingAnswerer(router,
			usecase.NewAnswerEvaluator(chatModel, toDomainReferences(references), routerMetrics, cfg.EvalTimeout))
		app.onClose(evaluating.Wait)
		answerer = evaluating
		slog.Info("answer_evaluation_enabled", "references", len(references))
	}

	app.Queue = queue
	app.Repo = repo
	app.IngestUC = usecase.NewIngestDocumentUseCase(repo, storage, queue)
	app.ProcessUC = usecase.NewProcessDocumentUseCase(repo, extractors, chunker, embedder, vectorDB)
	app.Router = answerer
	app.Index = vectorDB
	app.HTTPMetrics = httpMetrics
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func toDomainReferences(refs []config.ReferenceAnswer) []domain.ReferenceAnswer {
	out := make([]domain.ReferenceAnswer, 0, len(refs))
	for _, ref := range refs {
		out = append(out, domain.ReferenceAnswer{Question: ref.Question, Answer: ref.Answer})
	}
	return out
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	rc.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	rc.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	rc.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		rc.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	rc.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	rc.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	return rc
}

func newChatModel(cfg config.Config, executor *resilience.Executor) (ports.ChatModel, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "ollama":
		return ollama.NewChatModel(newOllamaClient(cfg, executor)), nil
	case "openai", "groq", "":
		client, err := newOpenAIClient(cfg, executor)
		if err != nil {
			return nil, err
		}
		return openai.NewChatModel(client), nil
	default:
		return nil, unknownProvider("LLM_PROVIDER", cfg.LLMProvider)
	}
}

func newEmbedder(cfg config.Config, executor *resilience.Executor) (ports.Embedder, error) {
	switch strings.ToLower(cfg.EmbedProvider) {
	case "ollama", "":
		return ollama.NewEmbedder(newOllamaClient(cfg, executor)), nil
	case "openai":
		client, err := newOpenAIClient(cfg, executor)
		if err != nil {
			return nil, err
		}
		return openai.NewEmbedder(client), nil
	default:
		return nil, unknownProvider("EMBED_PROVIDER", cfg.EmbedProvider)
	}
}

func newOllamaClient(cfg config.Config, executor *resilience.Executor) *ollama.Client {
	return ollama.New(cfg.OllamaURL, ollama.Options{
		ChatModel:   cfg.LLMModel,
		EmbedModel:  cfg.EmbedModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, executor)
}

func newOpenAIClient(cfg config.Config, executor *resilience.Executor) (*openai.Client, error) {
	return openai.New(openai.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		ChatModel:   cfg.LLMModel,
		EmbedModel:  cfg.EmbedModel,
		Temperature: float32(cfg.LLMTemperature),
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, executor)
}

func newVectorStore(ctx context.Context, cfg config.Config, db *sql.DB, executor *resilience.Executor) (ports.VectorStore, error) {
	switch strings.ToLower(cfg.VectorBackend) {
	case "qdrant", "":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor), nil
	case "pgvector":
		store := pgvector.New(db, cfg.EmbedDimensions)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, unknownProvider("VECTOR_BACKEND", cfg.VectorBackend)
	}
}

func newWebSearcher(cfg config.Config, executor *resilience.Executor) (ports.WebSearcher, error) {
	switch strings.ToLower(cfg.SearchProvider) {
	case "tavily", "":
		return tavily.New(cfg.TavilyURL, cfg.TavilyAPIKey, executor), nil
	case "duckduckgo":
		return duckduckgo.New("", executor), nil
	default:
		return nil, unknownProvider("SEARCH_PROVIDER", cfg.SearchProvider)
	}
}

func unknownProvider(key, value string) error {
	return domain.WrapError(domain.ErrConfiguration, "select provider", errors.New(key+"="+value+" is not supported"))
}
