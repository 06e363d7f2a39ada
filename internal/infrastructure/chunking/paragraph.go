package chunking

import (
	"github.com/documind-ai/documind/internal/core/domain"
)

// ParagraphChunker is the shipped policy: one extracted paragraph becomes one
// chunk. Ordinals are dense from zero in document order. When a document
// exceeds maxChunks the first maxChunks paragraphs are kept; the dropped
// count is returned so the caller can record the truncation.
type ParagraphChunker struct {
	maxChunks int
}

func NewParagraphChunker(maxChunks int) *ParagraphChunker {
	if maxChunks <= 0 {
		maxChunks = 1000
	}
	return &ParagraphChunker{maxChunks: maxChunks}
}

func (c *ParagraphChunker) Chunk(blocks []domain.ParagraphBlock) ([]domain.Chunk, int) {
	truncated := 0
	if len(blocks) > c.maxChunks {
		truncated = len(blocks) - c.maxChunks
		blocks = blocks[:c.maxChunks]
	}

	chunks := make([]domain.Chunk, 0, len(blocks))
	for i, block := range blocks {
		chunks = append(chunks, domain.Chunk{
			Ordinal: i,
			Text:    block.Text,
			Metadata: map[string]any{
				domain.MetaPage: block.Page,
			},
		})
	}
	return chunks, truncated
}
