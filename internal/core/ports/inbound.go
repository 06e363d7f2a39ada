package ports

import (
	"context"

	"github.com/documind-ai/documind/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, owner domain.AuthenticatedUser, filename, contentType string, data []byte) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentSearcher is the inbound contract for semantic search.
type DocumentSearcher interface {
	Search(ctx context.Context, owner domain.AuthenticatedUser, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// DocumentChatService answers natural-language questions with extractive
// citations.
type DocumentChatService interface {
	Chat(ctx context.Context, owner domain.AuthenticatedUser, query string, documentIDs []string) (*domain.ChatResponse, error)
}

// DocumentSummaryService produces summaries over retrieved chunks.
type DocumentSummaryService interface {
	Summarize(ctx context.Context, owner domain.AuthenticatedUser, req domain.SummarizeRequest) (*domain.SummarizeResponse, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, owner domain.AuthenticatedUser, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, owner domain.AuthenticatedUser) ([]domain.Document, error)
	Delete(ctx context.Context, owner domain.AuthenticatedUser, id string) error
}
