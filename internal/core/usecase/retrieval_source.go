package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const (
	DefaultTopK = 5

	retrievalUnavailableText = "Retrieval unavailable: embeddings not available"
)

type DocumentContextSource struct {
	embedder ports.Embedder
	searcher ports.DocumentSearcher
	topK     int
	minScore float64
}

// NewDocumentContextSource builds the retrieval branch. A minScore of zero
// or less disables the similarity floor.
func NewDocumentContextSource(embedder ports.Embedder, searcher ports.DocumentSearcher, topK int, minScore float64) *DocumentContextSource {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DocumentContextSource{
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		minScore: minScore,
	}
}

func (s *DocumentContextSource) Fetch(ctx context.Context, query string) domain.ContextBundle {
	bundle := domain.ContextBundle{Source: domain.ClassificationDocumentRetrieval}

	if s.embedder == nil || s.searcher == nil {
		return retrievalUnavailable(ctx, bundle, errors.New("embeddings not available"))
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return retrievalUnavailable(ctx, bundle, fmt.Errorf("embed query: %w", err))
	}

	docs, err := s.searcher.Search(ctx, queryVector, s.topK)
	if err != nil {
		return retrievalFailure(ctx, bundle, fmt.Errorf("search vector index: %w", err))
	}
	docs = s.applyScoreFloor(docs)

	slog.InfoContext(ctx, "documents_retrieved", "count", len(docs), "top_k", s.topK)
	bundle.Documents = docs
	bundle.Text = formatRetrievedDocuments(docs)
	return bundle
}

func (s *DocumentContextSource) applyScoreFloor(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	if s.minScore <= 0 {
		return docs
	}
	kept := docs[:0:0]
	for _, doc := range docs {
		if doc.Score >= s.minScore {
			kept = append(kept, doc)
		}
	}
	return kept
}

// retrievalUnavailable short-circuits before the index is searched.
func retrievalUnavailable(ctx context.Context, bundle domain.ContextBundle, cause error) domain.ContextBundle {
	err := domain.WrapError(domain.ErrDataUnavailable, "retrieve documents", cause)
	slog.WarnContext(ctx, "context_fetch_failed", "source", bundle.Source, "error", err.Error())
	bundle.Text = retrievalUnavailableText
	bundle.FetchError = err.Error()
	bundle.Err = err
	return bundle
}

func retrievalFailure(ctx context.Context, bundle domain.ContextBundle, err error) domain.ContextBundle {
	slog.WarnContext(ctx, "context_fetch_failed", "source", bundle.Source, "error", err.Error())
	bundle.Text = fmt.Sprintf("Error retrieving context: %v", err)
	bundle.FetchError = err.Error()
	bundle.Err = err
	return bundle
}
