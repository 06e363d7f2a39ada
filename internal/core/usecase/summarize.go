package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

const summarizeMaxChunks = 20

// SummarizeUseCase condenses a user's documents. With a query it works on
// the chunks most relevant to it; without one it takes chunks in document
// order, capped to keep the input bounded.
type SummarizeUseCase struct {
	chunks        ports.ChunkStore
	embedder      ports.Embedder
	summarizer    ports.Summarizer
	minSimilarity float64
}

func NewSummarizeUseCase(chunks ports.ChunkStore, embedder ports.Embedder, summarizer ports.Summarizer, minSimilarity float64) *SummarizeUseCase {
	if minSimilarity <= 0 {
		minSimilarity = 0.4
	}
	return &SummarizeUseCase{
		chunks:        chunks,
		embedder:      embedder,
		summarizer:    summarizer,
		minSimilarity: minSimilarity,
	}
}

func (uc *SummarizeUseCase) Summarize(ctx context.Context, owner domain.AuthenticatedUser, req domain.SummarizeRequest) (*domain.SummarizeResponse, error) {
	start := time.Now()

	candidates, err := uc.chunks.ListForOwner(ctx, owner.ID, req.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("list candidate chunks: %w", err)
	}

	var selected []domain.RetrievalResult
	if query := strings.TrimSpace(req.Query); query != "" {
		vector, err := uc.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		selected, _ = Rank(vector, candidates, uc.minSimilarity, summarizeMaxChunks)
	} else {
		for _, candidate := range candidates {
			selected = append(selected, domain.RetrievalResult{
				Chunk:    candidate.Chunk,
				Document: candidate.Document,
			})
			if len(selected) == summarizeMaxChunks {
				break
			}
		}
	}

	summary := uc.summarizer.Summarize(selected, strings.TrimSpace(req.Query), req.MaxLength)

	return &domain.SummarizeResponse{
		Summary:        summary,
		ChunksUsed:     len(selected),
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}
