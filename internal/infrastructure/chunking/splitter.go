package chunking

import (
	"sort"
	"strings"

	"github.com/documind-ai/documind/internal/core/domain"
)

// WindowChunker is the alternative policy: a fixed-size sliding window with
// overlap across the document's full text. Each window is attributed to the
// page its starting offset falls on.
type WindowChunker struct {
	chunkSize int
	overlap   int
	minSize   int
	maxChunks int
}

func NewWindowChunker(chunkSize, overlap, minSize, maxChunks int) *WindowChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	if minSize <= 0 {
		minSize = 50
	}
	if maxChunks <= 0 {
		maxChunks = 1000
	}
	return &WindowChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
		minSize:   minSize,
		maxChunks: maxChunks,
	}
}

func (c *WindowChunker) Chunk(blocks []domain.ParagraphBlock) ([]domain.Chunk, int) {
	if len(blocks) == 0 {
		return nil, 0
	}

	var runes []rune
	var pageStarts []int
	var pages []int
	for _, block := range blocks {
		if len(runes) > 0 {
			runes = append(runes, '\n', '\n')
		}
		pageStarts = append(pageStarts, len(runes))
		pages = append(pages, block.Page)
		runes = append(runes, []rune(block.Text)...)
	}

	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}

	var chunks []domain.Chunk
	truncated := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if len(text) >= c.minSize {
			if len(chunks) == c.maxChunks {
				truncated++
			} else {
				chunks = append(chunks, domain.Chunk{
					Ordinal: len(chunks),
					Text:    text,
					Metadata: map[string]any{
						domain.MetaPage: pageAt(pageStarts, pages, start),
					},
				})
			}
		}
		if end == len(runes) {
			break
		}
	}
	return chunks, truncated
}

func pageAt(pageStarts, pages []int, offset int) int {
	idx := sort.SearchInts(pageStarts, offset+1) - 1
	if idx < 0 {
		idx = 0
	}
	return pages[idx]
}
