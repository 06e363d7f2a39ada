package domain

// OwnedChunk is a chunk joined with its parent document, as returned by the
// chunk store's owner-scoped listing.
type OwnedChunk struct {
	Chunk    Chunk
	Document Document
}

// RetrievalResult is an ephemeral (chunk, document, score) triple produced
// per query. Similarity is cosine, range [-1, 1].
type RetrievalResult struct {
	Chunk      Chunk
	Document   Document
	Similarity float64
}

type SearchRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k"`
	MinSimilarity float64  `json:"min_similarity"`
	DocumentIDs   []string `json:"document_ids,omitempty"`
}

type SearchResult struct {
	Chunk      Chunk    `json:"chunk"`
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity_score"`
}

type SearchResponse struct {
	Query         string         `json:"query"`
	Results       []SearchResult `json:"results"`
	TotalResults  int            `json:"total_results"`
	ExecutionTime float64        `json:"execution_time"`
}

type Citation struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	Page       int     `json:"page_number,omitempty"`
	Similarity float64 `json:"similarity_score"`
}

type ChatResponse struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	ProcessingTime float64    `json:"processing_time"`
}

type SummarizeRequest struct {
	Query       string   `json:"query,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	MaxLength   int      `json:"max_length"`
}

type SummarizeResponse struct {
	Summary        string  `json:"summary"`
	ChunksUsed     int     `json:"chunks_used"`
	ProcessingTime float64 `json:"processing_time"`
}
