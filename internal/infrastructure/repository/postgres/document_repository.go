package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/documind-ai/documind/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the documents and doc_chunks tables. The embedding
// column is sized to the configured dimension; changing the dimension of an
// existing deployment is a migration, not a restart.
func (r *DocumentRepository) EnsureSchema(ctx context.Context, embeddingDim int) error {
	if embeddingDim <= 0 {
		embeddingDim = 384
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026030401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	storage_location TEXT NOT NULL,
	status TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS doc_chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	ordinal INTEGER NOT NULL,
	text TEXT NOT NULL,
	embedding vector(%d),
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (document_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_doc_chunks_document ON doc_chunks(document_id);

CREATE INDEX IF NOT EXISTS idx_doc_chunks_embedding ON doc_chunks
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`, embeddingDim)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metaJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "marshal document metadata", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (id, owner_id, title, storage_location, status, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		doc.ID, doc.OwnerID, doc.Title, doc.StorageLocation, string(doc.Status), metaJSON,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "insert document", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, storage_location, status, metadata, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("id %s", id))
		}
		return nil, domain.WrapError(domain.ErrStore, "scan document", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, title, storage_location, status, metadata, created_at, updated_at
FROM documents
WHERE owner_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list documents", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStore, "scan document", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "iterate documents", err)
	}
	return docs, nil
}

// UpdateStatusFrom performs the compare-and-swap status transition that keeps
// at most one worker processing a document. Zero affected rows on an existing
// document means another worker won the transition.
func (r *DocumentRepository) UpdateStatusFrom(ctx context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus) error {
	if len(from) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "update document status", errors.New("empty source status set"))
	}

	placeholders := make([]string, len(from))
	args := []any{id, string(to), time.Now().UTC()}
	for i, status := range from {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, string(status))
	}

	query := fmt.Sprintf(`
UPDATE documents
SET status = $2, updated_at = $3
WHERE id = $1 AND status IN (%s)
`, strings.Join(placeholders, ","))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update document status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update document status", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", id))
	}
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update document status", err)
	}
	return domain.WrapError(domain.ErrConflict, "update document status", fmt.Errorf("document %s is %s", id, current))
}

// SetFailure marks the document failed and records the error message in its
// metadata, overwriting a previous message if any.
func (r *DocumentRepository) SetFailure(ctx context.Context, id string, message string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2,
	metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object('error', $3::text),
	updated_at = $4
WHERE id = $1
`, id, string(domain.StatusFailed), message, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrStore, "mark document failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "mark document failed", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "mark document failed", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "delete document", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "delete document", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var metaRaw []byte
	var status string

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Title, &doc.StorageLocation, &status,
		&metaRaw, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(meta)
}

func unmarshalMetadata(raw []byte, dst *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
