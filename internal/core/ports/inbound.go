package ports

import (
	"context"
	"io"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

// QueryAnswerer is the single inbound entry point of the routing core.
// Implementations never return an error; failures are reported inside the result.
type QueryAnswerer interface {
	Answer(ctx context.Context, query string) domain.AnswerResult
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// IndexStats reports the size of the retrieval index.
type IndexStats interface {
	Count(ctx context.Context) (int, error)
}
