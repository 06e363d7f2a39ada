package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/documind-ai/documind/internal/core/domain"
)

func processingDoc(id, owner string) *domain.Document {
	return &domain.Document{
		ID:              id,
		OwnerID:         owner,
		Title:           "report.pdf",
		StorageLocation: "/data/" + owner + "/" + id + "/report.pdf",
		Status:          domain.StatusProcessing,
	}
}

func TestProcessHappyPathPersistsChunksAndMetadata(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	store := &chunkStoreFake{}
	extractor := &extractorFake{
		blocks: []domain.ParagraphBlock{
			{Text: "first paragraph of sufficient length", Page: 1},
			{Text: "second paragraph of sufficient length", Page: 2},
		},
		info: domain.DocumentInfo{PageCount: 2, Title: "Quarterly Report", Author: "Finance"},
	}
	chunker := &chunkerFake{chunks: []domain.Chunk{
		{Ordinal: 0, Text: "first paragraph of sufficient length", Metadata: map[string]any{domain.MetaPage: 1}},
		{Ordinal: 1, Text: "second paragraph of sufficient length", Metadata: map[string]any{domain.MetaPage: 2}},
	}}
	embedder := &embedderFake{}

	uc := NewProcessUseCase(repo, store, extractor, chunker, embedder, nil)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if store.putDocumentID != "doc-1" {
		t.Fatalf("PutChunks document = %q, want doc-1", store.putDocumentID)
	}
	if len(store.putChunks) != 2 {
		t.Fatalf("persisted %d chunks, want 2", len(store.putChunks))
	}
	for i, chunk := range store.putChunks {
		if chunk.ID == "" || chunk.DocumentID != "doc-1" {
			t.Fatalf("chunk %d missing identity: %+v", i, chunk)
		}
		if chunk.Embedding == nil {
			t.Fatalf("chunk %d missing embedding", i)
		}
	}
	if got := store.putMeta[domain.MetaChunkCount]; got != 2 {
		t.Fatalf("chunk_count = %v, want 2", got)
	}
	if got := store.putMeta[domain.MetaPageCount]; got != 2 {
		t.Fatalf("page_count = %v, want 2", got)
	}
	if got := store.putMeta[domain.MetaTitle]; got != "Quarterly Report" {
		t.Fatalf("title = %v", got)
	}
	if _, present := store.putMeta[domain.MetaTruncatedChunks]; present {
		t.Fatalf("truncated_chunks should be absent when nothing was dropped")
	}
	if len(repo.failures) != 0 {
		t.Fatalf("unexpected failure marks: %v", repo.failures)
	}
}

func TestProcessRecordsTruncationInMetadata(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	store := &chunkStoreFake{}
	chunker := &chunkerFake{
		chunks:    []domain.Chunk{{Ordinal: 0, Text: "kept paragraph"}},
		truncated: 7,
	}

	uc := NewProcessUseCase(repo, store, &extractorFake{info: domain.DocumentInfo{PageCount: 1}}, chunker, &embedderFake{}, nil)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if got := store.putMeta[domain.MetaTruncatedChunks]; got != 7 {
		t.Fatalf("truncated_chunks = %v, want 7", got)
	}
}

func TestProcessSkipsDuplicateDelivery(t *testing.T) {
	repo := &repoFake{
		doc:       processingDoc("doc-1", "owner-1"),
		updateErr: domain.WrapError(domain.ErrConflict, "update document status", errors.New("document doc-1 is processing")),
	}
	extractor := &extractorFake{}

	uc := NewProcessUseCase(repo, &chunkStoreFake{}, extractor, &chunkerFake{}, &embedderFake{}, nil)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("duplicate delivery should be dropped, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatalf("pipeline ran despite lost claim")
	}
}

func TestProcessZeroChunksStillSucceeds(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	store := &chunkStoreFake{}
	embedder := &embedderFake{}

	uc := NewProcessUseCase(repo, store,
		&extractorFake{info: domain.DocumentInfo{PageCount: 3}},
		&chunkerFake{}, embedder, nil)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if store.putCalls != 1 {
		t.Fatalf("PutChunks calls = %d, want 1", store.putCalls)
	}
	if got := store.putMeta[domain.MetaChunkCount]; got != 0 {
		t.Fatalf("chunk_count = %v, want 0", got)
	}
	if embedder.embedCalls != 0 {
		t.Fatalf("embedder invoked for empty chunk set")
	}
}

func TestProcessExtractionFailureMarksFailed(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	store := &chunkStoreFake{}
	extractor := &extractorFake{
		err: domain.WrapError(domain.ErrExtraction, "parse pdf", errors.New("bad xref")),
	}

	uc := NewProcessUseCase(repo, store, extractor, &chunkerFake{}, &embedderFake{}, nil)
	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if store.putCalls != 0 {
		t.Fatalf("chunks were written for a failed document")
	}
	if _, marked := repo.failures["doc-1"]; !marked {
		t.Fatalf("document was not marked failed")
	}
}

func TestProcessEmbeddingFailureLeavesNoPartialState(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	store := &chunkStoreFake{}
	embedder := &embedderFake{
		err: domain.WrapError(domain.ErrEmbedding, "embed batch", errors.New("503")),
	}

	uc := NewProcessUseCase(repo, store,
		&extractorFake{blocks: []domain.ParagraphBlock{{Text: "text", Page: 1}}, info: domain.DocumentInfo{PageCount: 1}},
		&chunkerFake{chunks: []domain.Chunk{{Ordinal: 0, Text: "text"}}},
		embedder, nil)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if store.putCalls != 0 {
		t.Fatalf("partial chunk write happened after embedding failure")
	}
	if _, marked := repo.failures["doc-1"]; !marked {
		t.Fatalf("document was not marked failed")
	}
}

func TestProcessConvertsParserPanicToFailure(t *testing.T) {
	repo := &repoFake{doc: processingDoc("doc-1", "owner-1")}
	extractor := &extractorFake{panics: true}

	uc := NewProcessUseCase(repo, &chunkStoreFake{}, extractor, &chunkerFake{}, &embedderFake{}, nil)
	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction from panic, got %v", err)
	}
	if _, marked := repo.failures["doc-1"]; !marked {
		t.Fatalf("document was not marked failed after panic")
	}
}
