package ports

import (
	"context"
	"io"

	"github.com/documind-ai/documind/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	// UpdateStatusFrom transitions status only when the current status is one
	// of from; zero affected rows on an existing document is ErrConflict.
	UpdateStatusFrom(ctx context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus) error
	// SetFailure marks the document failed and records the error message in
	// its metadata.
	SetFailure(ctx context.Context, id string, message string) error
	Delete(ctx context.Context, id string) error
}

// ChunkStore persists chunk batches and serves owner-scoped listings.
type ChunkStore interface {
	// PutChunks writes a document's chunk set, the processed status and the
	// pipeline metadata in one transaction. All-or-nothing.
	PutChunks(ctx context.Context, documentID string, chunks []domain.Chunk, meta map[string]any) error
	// ListForOwner returns chunks joined with their parent documents for
	// documents owned by ownerID, optionally restricted to documentIDs.
	ListForOwner(ctx context.Context, ownerID string, documentIDs []string) ([]domain.OwnedChunk, error)
}

// ObjectStorage stores source documents. Save returns an opaque location
// string; Open dispatches on the location's prefix to choose a read strategy.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Provider() string
}

// JobDispatcher hands an ingestion job to the work queue. An unreachable
// backend is reported as ErrQueueUnavailable; the dispatcher never executes
// the job itself.
type JobDispatcher interface {
	Dispatch(ctx context.Context, documentID string) error
}

// JobConsumer pulls ingestion jobs for the worker.
type JobConsumer interface {
	Consume(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into page-tagged paragraph blocks.
type TextExtractor interface {
	Extract(ctx context.Context, location string) ([]domain.ParagraphBlock, domain.DocumentInfo, error)
}

// Chunker groups paragraph blocks into bounded chunks. It returns the chunk
// candidates in document order plus the number of blocks dropped by the
// per-document cap.
type Chunker interface {
	Chunk(blocks []domain.ParagraphBlock) ([]domain.Chunk, int)
}

// Embedder builds fixed-dimension vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Summarizer condenses retrieved chunks into a short text.
type Summarizer interface {
	Summarize(chunks []domain.RetrievalResult, query string, maxLength int) string
}
