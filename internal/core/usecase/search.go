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

// SearchDefaults are applied to requests that leave the knobs unset.
type SearchDefaults struct {
	TopK          int
	TopKMax       int
	MinSimilarity float64
}

type SearchUseCase struct {
	chunks   ports.ChunkStore
	embedder ports.Embedder
	defaults SearchDefaults
}

func NewSearchUseCase(chunks ports.ChunkStore, embedder ports.Embedder, defaults SearchDefaults) *SearchUseCase {
	if defaults.TopK <= 0 {
		defaults.TopK = 5
	}
	if defaults.TopKMax <= 0 {
		defaults.TopKMax = 20
	}
	if defaults.MinSimilarity <= 0 {
		defaults.MinSimilarity = 0.5
	}
	return &SearchUseCase{chunks: chunks, embedder: embedder, defaults: defaults}
}

func (uc *SearchUseCase) Search(ctx context.Context, owner domain.AuthenticatedUser, req domain.SearchRequest) (*domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("empty query"))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = uc.defaults.TopK
	}
	if topK > uc.defaults.TopKMax {
		topK = uc.defaults.TopKMax
	}
	minSimilarity := req.MinSimilarity
	if minSimilarity <= 0 {
		minSimilarity = uc.defaults.MinSimilarity
	}

	start := time.Now()

	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := uc.chunks.ListForOwner(ctx, owner.ID, req.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("list candidate chunks: %w", err)
	}

	ranked, total := Rank(vector, candidates, minSimilarity, topK)

	results := make([]domain.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = domain.SearchResult{
			Chunk:      r.Chunk,
			Document:   r.Document,
			Similarity: r.Similarity,
		}
	}

	return &domain.SearchResponse{
		Query:         query,
		Results:       results,
		TotalResults:  total,
		ExecutionTime: time.Since(start).Seconds(),
	}, nil
}
