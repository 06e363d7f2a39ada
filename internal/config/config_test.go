package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_MIN_SIMILARITY", "")
	t.Setenv("SEARCH_MIN_SIMILARITY", "")
	t.Setenv("SEARCH_TOP_K", "")
	t.Setenv("SEARCH_TOP_K_MAX", "")
	t.Setenv("EMBED_DIMENSION", "")

	cfg := Load()
	if cfg.RetrievalMinSimilarity != 0.4 {
		t.Fatalf("expected default retrieval threshold 0.4, got %v", cfg.RetrievalMinSimilarity)
	}
	if cfg.SearchMinSimilarity != 0.5 {
		t.Fatalf("expected default search threshold 0.5, got %v", cfg.SearchMinSimilarity)
	}
	if cfg.SearchTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.SearchTopK)
	}
	if cfg.SearchTopKMax != 20 {
		t.Fatalf("expected default top k cap 20, got %d", cfg.SearchTopKMax)
	}
	if cfg.EmbedDimension != 384 {
		t.Fatalf("expected default embedding dimension 384, got %d", cfg.EmbedDimension)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_MIN_SIMILARITY", "0.35")
	t.Setenv("SEARCH_MIN_SIMILARITY", "0.7")
	t.Setenv("MAX_CHUNKS_PER_DOC", "250")
	t.Setenv("TASK_TIMEOUT", "120")

	cfg := Load()
	if cfg.RetrievalMinSimilarity != 0.35 {
		t.Fatalf("expected retrieval threshold override, got %v", cfg.RetrievalMinSimilarity)
	}
	if cfg.SearchMinSimilarity != 0.7 {
		t.Fatalf("expected search threshold override, got %v", cfg.SearchMinSimilarity)
	}
	if cfg.MaxChunksPerDoc != 250 {
		t.Fatalf("expected chunk cap 250, got %d", cfg.MaxChunksPerDoc)
	}
	if cfg.TaskTimeout.Seconds() != 120 {
		t.Fatalf("expected task timeout 120s, got %v", cfg.TaskTimeout)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("SEARCH_MIN_SIMILARITY", "not-a-number")
	t.Setenv("EMBED_BATCH_SIZE", "???")

	cfg := Load()
	if cfg.SearchMinSimilarity != 0.5 {
		t.Fatalf("expected fallback search threshold, got %v", cfg.SearchMinSimilarity)
	}
	if cfg.EmbedBatchSize != 32 {
		t.Fatalf("expected fallback batch size, got %d", cfg.EmbedBatchSize)
	}
}
