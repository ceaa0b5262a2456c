package pgvector

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

func newStoreWithMock(t *testing.T, dims int) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, dims), mock
}

func TestIndexChunksInsertsInTransaction(t *testing.T) {
	store, mock := newStoreWithMock(t, 2)
	doc := &domain.Document{ID: "doc-1", Filename: "guide.pdf"}
	chunks := []domain.Chunk{
		{Content: "a", ChunkIndex: 0, TotalChunks: 2},
		{Content: "b", SourceName: "guide.pdf", ChunkIndex: 1, TotalChunks: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs(sqlmock.AnyArg(), "doc-1", "guide.pdf", 0, 2, "a", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs(sqlmock.AnyArg(), "doc-1", "guide.pdf", 1, 2, "b", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.IndexChunks(context.Background(), doc, chunks, [][]float32{{0.1, 0.2}, {0.3, 0.4}}); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIndexChunksRejectsDimensionMismatch(t *testing.T) {
	store, mock := newStoreWithMock(t, 3)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.IndexChunks(context.Background(), &domain.Document{ID: "d"}, []domain.Chunk{{Content: "a"}}, [][]float32{{0.1}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSearchReturnsRankedDocuments(t *testing.T) {
	store, mock := newStoreWithMock(t, 2)
	rows := sqlmock.NewRows([]string{"document_id", "source", "chunk_index", "content", "score"}).
		AddRow("d1", "a.pdf", 2, "first", 0.91).
		AddRow("d2", "b.pdf", 0, "second", 0.64)
	mock.ExpectQuery("SELECT document_id, source, chunk_index, content").
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnRows(rows)

	docs, err := store.Search(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 2 || docs[0].SourceName != "a.pdf" || docs[0].ChunkIndex != 2 || docs[1].Score != 0.64 {
		t.Fatalf("unexpected docs %+v", docs)
	}
}

func TestCount(t *testing.T) {
	store, mock := newStoreWithMock(t, 2)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err := store.Count(context.Background())
	if err != nil || count != 9 {
		t.Fatalf("expected 9, got %d, %v", count, err)
	}

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection refused"))
	if _, err := store.Count(context.Background()); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
