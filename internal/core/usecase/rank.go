package usecase

import (
	"math"
	"sort"

	"github.com/documind-ai/documind/internal/core/domain"
)

// Rank scores candidates against the query vector with cosine similarity,
// keeps those at or above minSimilarity and returns the topK best, highest
// first. Ties keep candidate order, so repeated queries over the same data
// return the same ranking. The second return is the number of candidates
// that passed the threshold before the topK cut.
func Rank(query []float32, candidates []domain.OwnedChunk, minSimilarity float64, topK int) ([]domain.RetrievalResult, int) {
	results := make([]domain.RetrievalResult, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Chunk.Embedding == nil {
			continue
		}
		similarity := cosineSimilarity(query, candidate.Chunk.Embedding)
		if similarity < minSimilarity {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Chunk:      candidate.Chunk,
			Document:   candidate.Document,
			Similarity: similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	total := len(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, total
}

// cosineSimilarity computes in float64 to keep small differences between
// near-identical float32 vectors from collapsing. Zero-magnitude vectors
// score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
