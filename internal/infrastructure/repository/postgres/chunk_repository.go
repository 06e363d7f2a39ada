package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/documind-ai/documind/internal/core/domain"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// PutChunks writes the document's whole chunk set, flips its status to
// processed and merges the pipeline metadata, all in one transaction. A
// failure anywhere rolls the whole write back, so a reader can never observe
// a processed document with a partial chunk set.
func (r *ChunkRepository) PutChunks(ctx context.Context, documentID string, chunks []domain.Chunk, meta map[string]any) error {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "marshal pipeline metadata", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "begin chunk tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks {
		chunkMeta, err := marshalMetadata(chunk.Metadata)
		if err != nil {
			return domain.WrapError(domain.ErrStore, "marshal chunk metadata", err)
		}

		var embedding any
		if len(chunk.Embedding) > 0 {
			embedding = pgvector.NewVector(chunk.Embedding)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO doc_chunks (id, document_id, ordinal, text, embedding, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			chunk.ID, documentID, chunk.Ordinal, chunk.Text, embedding, chunkMeta, chunk.CreatedAt,
		)
		if err != nil {
			return domain.WrapError(domain.ErrStore, fmt.Sprintf("insert chunk %d", chunk.Ordinal), err)
		}
	}

	res, err := tx.ExecContext(ctx, `
UPDATE documents
SET status = $2,
	metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
	updated_at = $4
WHERE id = $1
`, documentID, string(domain.StatusProcessed), metaJSON, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrStore, "finalize document", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "finalize document", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "finalize document", fmt.Errorf("id %s", documentID))
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrStore, "commit chunk tx", err)
	}
	return nil
}

// ListForOwner returns the owner's chunks joined with their parent documents,
// ordered by document insertion then chunk ordinal so retrieval input order
// is deterministic.
func (r *ChunkRepository) ListForOwner(ctx context.Context, ownerID string, documentIDs []string) ([]domain.OwnedChunk, error) {
	query := `
SELECT c.id, c.document_id, c.ordinal, c.text, c.embedding::text, c.metadata, c.created_at,
	d.id, d.owner_id, d.title, d.storage_location, d.status, d.metadata, d.created_at, d.updated_at
FROM doc_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.owner_id = $1
`
	args := []any{ownerID}
	if len(documentIDs) > 0 {
		placeholders := make([]string, len(documentIDs))
		for i, id := range documentIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, id)
		}
		query += fmt.Sprintf("AND c.document_id IN (%s)\n", strings.Join(placeholders, ","))
	}
	query += "ORDER BY d.created_at, d.id, c.ordinal"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list chunks", err)
	}
	defer rows.Close()

	var out []domain.OwnedChunk
	for rows.Next() {
		var chunk domain.Chunk
		var doc domain.Document
		var embeddingRaw sql.NullString
		var chunkMetaRaw, docMetaRaw []byte
		var docStatus string

		err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Text, &embeddingRaw, &chunkMetaRaw, &chunk.CreatedAt,
			&doc.ID, &doc.OwnerID, &doc.Title, &doc.StorageLocation, &docStatus, &docMetaRaw, &doc.CreatedAt, &doc.UpdatedAt,
		)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStore, "scan chunk", err)
		}

		if embeddingRaw.Valid && embeddingRaw.String != "" {
			var vec pgvector.Vector
			if err := vec.Scan(embeddingRaw.String); err != nil {
				return nil, domain.WrapError(domain.ErrStore, "parse embedding", err)
			}
			chunk.Embedding = vec.Slice()
		}
		if err := unmarshalMetadata(chunkMetaRaw, &chunk.Metadata); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "unmarshal chunk metadata", err)
		}
		if err := unmarshalMetadata(docMetaRaw, &doc.Metadata); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "unmarshal document metadata", err)
		}
		doc.Status = domain.DocumentStatus(docStatus)

		out = append(out, domain.OwnedChunk{Chunk: chunk, Document: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "iterate chunks", err)
	}
	return out, nil
}
