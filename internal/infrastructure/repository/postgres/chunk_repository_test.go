package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/documind-ai/documind/internal/core/domain"
)

func newChunkRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func testChunks(now time.Time) []domain.Chunk {
	return []domain.Chunk{
		{ID: "ch-0", DocumentID: "doc-1", Ordinal: 0, Text: "first paragraph",
			Embedding: []float32{0.1, 0.2}, Metadata: map[string]any{domain.MetaPage: 1}, CreatedAt: now},
		{ID: "ch-1", DocumentID: "doc-1", Ordinal: 1, Text: "second paragraph",
			Embedding: []float32{0.3, 0.4}, Metadata: map[string]any{domain.MetaPage: 2}, CreatedAt: now},
	}
}

func TestPutChunksCommitsChunksAndStatusTogether(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	chunks := testChunks(now)

	mock.ExpectBegin()
	for _, chunk := range chunks {
		mock.ExpectExec("INSERT INTO doc_chunks").
			WithArgs(chunk.ID, "doc-1", chunk.Ordinal, chunk.Text,
				sqlmock.AnyArg(), sqlmock.AnyArg(), chunk.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusProcessed), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.PutChunks(context.Background(), "doc-1", chunks, map[string]any{domain.MetaChunkCount: 2})
	if err != nil {
		t.Fatalf("PutChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPutChunksRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	chunks := testChunks(now)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO doc_chunks").
		WithArgs(chunks[0].ID, "doc-1", chunks[0].Ordinal, chunks[0].Text,
			sqlmock.AnyArg(), sqlmock.AnyArg(), chunks[0].CreatedAt).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.PutChunks(context.Background(), "doc-1", chunks, nil)
	if !domain.IsKind(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPutChunksRollsBackWhenDocumentVanished(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").
		WithArgs("gone", string(domain.StatusProcessed), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.PutChunks(context.Background(), "gone", nil, map[string]any{domain.MetaChunkCount: 0})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListForOwnerParsesEmbeddings(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "document_id", "ordinal", "text", "embedding", "metadata", "created_at",
		"d_id", "owner_id", "title", "storage_location", "status", "d_metadata", "d_created_at", "d_updated_at",
	}).AddRow(
		"ch-0", "doc-1", 0, "first", "[0.1,0.2]", []byte(`{"page":1}`), now,
		"doc-1", "owner-1", "report.pdf", "/data/doc-1", string(domain.StatusProcessed), []byte(`{}`), now, now,
	).AddRow(
		"ch-1", "doc-1", 1, "second", nil, []byte(`{"page":2}`), now,
		"doc-1", "owner-1", "report.pdf", "/data/doc-1", string(domain.StatusProcessed), []byte(`{}`), now, now,
	)

	mock.ExpectQuery("SELECT c.id, c.document_id").
		WithArgs("owner-1").
		WillReturnRows(rows)

	out, err := repo.ListForOwner(context.Background(), "owner-1", nil)
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if got := out[0].Chunk.Embedding; len(got) != 2 || got[0] != 0.1 || got[1] != 0.2 {
		t.Fatalf("embedding = %v, want [0.1 0.2]", got)
	}
	if out[1].Chunk.Embedding != nil {
		t.Fatalf("expected nil embedding for unembedded chunk, got %v", out[1].Chunk.Embedding)
	}
	if got, ok := out[1].Chunk.Metadata[domain.MetaPage].(float64); !ok || got != 2 {
		t.Fatalf("chunk page = %v, want 2", out[1].Chunk.Metadata[domain.MetaPage])
	}
	if out[0].Document.OwnerID != "owner-1" {
		t.Fatalf("document owner = %q, want owner-1", out[0].Document.OwnerID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListForOwnerFiltersByDocumentIDs(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT c.id, c.document_id").
		WithArgs("owner-1", "doc-1", "doc-2").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "document_id", "ordinal", "text", "embedding", "metadata", "created_at",
			"d_id", "owner_id", "title", "storage_location", "status", "d_metadata", "d_created_at", "d_updated_at",
		}))

	out, err := repo.ListForOwner(context.Background(), "owner-1", []string{"doc-1", "doc-2"})
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
