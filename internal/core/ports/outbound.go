package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

// QueryClassifier selects exactly one context source for a query. It never fails.
type QueryClassifier interface {
	Classify(ctx context.Context, query string) domain.Classification
}

// ContextSource turns a query into a context bundle. Failures are embedded in the bundle.
type ContextSource interface {
	Fetch(ctx context.Context, query string) domain.ContextBundle
}

// ResponseGenerator produces the final answer text from query and context.
type ResponseGenerator interface {
	Generate(ctx context.Context, query string, bundle domain.ContextBundle) string
}

// AnswerObserver receives routing telemetry.
type AnswerObserver interface {
	ObserveClassification(classification domain.Classification)
	ObserveStage(stage string, elapsed time.Duration)
	ObserveContextError(source domain.Classification)
	ObserveAnswer(result domain.AnswerResult)
}

// EvaluationRecorder receives answer-correctness verdicts.
type EvaluationRecorder interface {
	ObserveEvaluation(verdict domain.EvaluationVerdict)
}

// ChatModel is a black-box LLM completion capability.
type ChatModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// DocumentCounter reports how many chunks are currently indexed.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// DocumentSearcher returns nearest-neighbour documents ordered by descending score.
type DocumentSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievedDocument, error)
}

// VectorStore indexes chunks and performs semantic search.
type VectorStore interface {
	DocumentCounter
	DocumentSearcher
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
}

// WeatherProvider looks up current conditions for a city.
type WeatherProvider interface {
	Lookup(ctx context.Context, city string) (*domain.WeatherReport, error)
}

// WebSearcher runs a web search capped at maxResults hits.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (*domain.SearchResponse, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	MarkReady(ctx context.Context, id string, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}
