package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

const schemaLockID int64 = 2026021002

// Store keeps chunk embeddings in Postgres using the pgvector extension.
type Store struct {
	db         *sql.DB
	dimensions int
}

func New(db *sql.DB, dimensions int) *Store {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Store{db: db, dimensions: dimensions}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vector schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire vector schema lock: %w", err)
	}

	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	source TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	total_chunks INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING hnsw (embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS idx_document_chunks_document ON document_chunks(document_id);
`, s.dimensions)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute vector schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vector schema tx: %w", err)
	}
	return nil
}

func (s *Store) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return domain.WrapError(domain.ErrInvalidInput, "pgvector insert", fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for i, chunk := range chunks {
		if len(vectors[i]) != s.dimensions {
			return domain.WrapError(domain.ErrInvalidInput, "pgvector insert", fmt.Errorf("vector %d has %d dimensions, want %d", i, len(vectors[i]), s.dimensions))
		}
		source := chunk.SourceName
		if source == "" {
			source = doc.Filename
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO document_chunks (id, document_id, source, chunk_index, total_chunks, content, embedding, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, uuid.NewString(), doc.ID, source, chunk.ChunkIndex, chunk.TotalChunks, chunk.Content, pgvector.NewVector(vectors[i]), now)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

// Search orders by cosine distance; equal scores keep insertion order.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT document_id, source, chunk_index, content, 1 - (embedding <=> $1) AS score
FROM document_chunks
ORDER BY embedding <=> $1, created_at, chunk_index
LIMIT $2
`, pgvector.NewVector(queryVector), limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "pgvector search", err)
	}
	defer rows.Close()

	out := make([]domain.RetrievedDocument, 0, limit)
	for rows.Next() {
		var doc domain.RetrievedDocument
		if err := rows.Scan(&doc.DocumentID, &doc.SourceName, &doc.ChunkIndex, &doc.Content, &doc.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, domain.WrapError(domain.ErrTemporary, "pgvector count", err)
	}
	return count, nil
}
