package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

const (
	chatAnswerIntro = "Based on your documents, here is the relevant information:\n\n"
	chatNoDocuments = "I couldn't find any documents to answer your question. Please upload some documents first."
	chatNoMatches   = "I searched your documents but couldn't find any relevant information to answer your question."

	citationSnippetLen = 200
)

// ChatUseCase answers questions extractively: it retrieves the best
// matching chunks and presents their text with citations. The chat
// threshold is looser than search's so a question still gets an answer
// from moderately related material.
type ChatUseCase struct {
	chunks        ports.ChunkStore
	embedder      ports.Embedder
	minSimilarity float64
	topK          int
}

func NewChatUseCase(chunks ports.ChunkStore, embedder ports.Embedder, minSimilarity float64, topK int) *ChatUseCase {
	if minSimilarity <= 0 {
		minSimilarity = 0.4
	}
	if topK <= 0 {
		topK = 5
	}
	return &ChatUseCase{chunks: chunks, embedder: embedder, minSimilarity: minSimilarity, topK: topK}
}

func (uc *ChatUseCase) Chat(ctx context.Context, owner domain.AuthenticatedUser, query string, documentIDs []string) (*domain.ChatResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("empty query"))
	}

	start := time.Now()

	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := uc.chunks.ListForOwner(ctx, owner.ID, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list candidate chunks: %w", err)
	}
	if len(candidates) == 0 {
		return &domain.ChatResponse{
			Answer:         chatNoDocuments,
			Citations:      []domain.Citation{},
			ProcessingTime: time.Since(start).Seconds(),
		}, nil
	}

	results, _ := Rank(vector, candidates, uc.minSimilarity, uc.topK)
	if len(results) == 0 {
		return &domain.ChatResponse{
			Answer:         chatNoMatches,
			Citations:      []domain.Citation{},
			ProcessingTime: time.Since(start).Seconds(),
		}, nil
	}

	excerpts := make([]string, len(results))
	citations := make([]domain.Citation, len(results))
	for i, r := range results {
		excerpts[i] = "- " + strings.TrimSpace(r.Chunk.Text)
		citations[i] = domain.Citation{
			DocumentID: r.Document.ID,
			ChunkID:    r.Chunk.ID,
			Text:       snippet(r.Chunk.Text, citationSnippetLen),
			Page:       chunkPage(r.Chunk),
			Similarity: r.Similarity,
		}
	}

	return &domain.ChatResponse{
		Answer:         chatAnswerIntro + strings.Join(excerpts, "\n\n"),
		Citations:      citations,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// chunkPage reads the chunk's source page from its metadata. JSON round
// trips store numbers as float64; fresh in-memory chunks carry int.
func chunkPage(chunk domain.Chunk) int {
	switch v := chunk.Metadata[domain.MetaPage].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
