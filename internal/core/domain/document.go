package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// Metadata keys written by the ingestion pipeline.
const (
	MetaPageCount       = "page_count"
	MetaTitle           = "title"
	MetaAuthor          = "author"
	MetaChunkCount      = "chunk_count"
	MetaTruncatedChunks = "truncated_chunks"
	MetaError           = "error"
	MetaOriginalName    = "original_name"
	MetaSize            = "size"
	MetaContentType     = "content_type"
	MetaStorageProvider = "storage_provider"

	// MetaPage is the chunk-level source page number, 1-based.
	MetaPage = "page"
)

type Document struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Title           string         `json:"title"`
	StorageLocation string         `json:"storage_location"`
	Status          DocumentStatus `json:"status"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Chunk is one bounded unit of extracted text. Embedding is nil when
// generation did not run for this chunk; consumers skip such chunks.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Ordinal    int            `json:"ordinal"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ParagraphBlock is the extractor's output unit: one paragraph of text
// tagged with its 1-based source page.
type ParagraphBlock struct {
	Text string
	Page int
}

// DocumentInfo carries document-level metadata read from the source file.
type DocumentInfo struct {
	PageCount int
	Title     string
	Author    string
}
