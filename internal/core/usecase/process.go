package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

// ProcessUseCase runs the ingestion pipeline for one document: extract,
// chunk, embed, persist. It owns the status lifecycle; the document ends
// processed or failed, never stuck in processing, as long as the store is
// reachable.
type ProcessUseCase struct {
	repo      ports.DocumentRepository
	chunks    ports.ChunkStore
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	logger    *slog.Logger
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	chunks ports.ChunkStore,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	logger *slog.Logger,
) *ProcessUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessUseCase{
		repo:      repo,
		chunks:    chunks,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		logger:    logger,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	err := uc.repo.UpdateStatusFrom(ctx, documentID,
		[]domain.DocumentStatus{domain.StatusUploaded, domain.StatusFailed},
		domain.StatusProcessing,
	)
	if domain.IsKind(err, domain.ErrConflict) {
		// Another worker already claimed this document or it is already
		// processed. Duplicate deliveries land here and are dropped.
		uc.logger.Info("skipping duplicate processing job",
			"document_id", documentID, "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim document for processing: %w", err)
	}

	if err := uc.runPipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.SetFailure(ctx, documentID, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}
	return nil
}

func (uc *ProcessUseCase) runPipeline(ctx context.Context, documentID string) (err error) {
	// Malformed PDFs can panic deep inside parsing libraries. A panic here
	// must fail the one document, not the worker.
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrExtraction, "process document",
				fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	blocks, info, err := uc.extractor.Extract(ctx, doc.StorageLocation)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	chunks, truncated := uc.chunker.Chunk(blocks)
	if err := uc.embedChunks(ctx, chunks); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].DocumentID = documentID
		chunks[i].CreatedAt = now
	}

	meta := map[string]any{
		domain.MetaPageCount:  info.PageCount,
		domain.MetaChunkCount: len(chunks),
	}
	if info.Title != "" {
		meta[domain.MetaTitle] = info.Title
	}
	if info.Author != "" {
		meta[domain.MetaAuthor] = info.Author
	}
	if truncated > 0 {
		meta[domain.MetaTruncatedChunks] = truncated
	}

	// A scanned or image-only PDF yields zero chunks; that is still a
	// successful run and the document becomes processed with chunk_count 0.
	if err := uc.chunks.PutChunks(ctx, documentID, chunks, meta); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	uc.logger.Info("document processed",
		"document_id", documentID,
		"pages", info.PageCount,
		"chunks", len(chunks),
		"truncated", truncated,
	)
	return nil
}

func (uc *ProcessUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(domain.ErrEmbedding, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}
