package pdf

import (
	"strings"

	"github.com/documind-ai/documind/internal/core/domain"
)

// paragraphsFromLines groups consecutive non-blank lines into paragraphs. A
// blank line terminates the current paragraph; the paragraph is emitted only
// when its space-joined text reaches minSize characters. Page numbers are
// 1-based.
func paragraphsFromLines(lines []string, page int, minSize int) []domain.ParagraphBlock {
	var blocks []domain.ParagraphBlock
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		current = current[:0]
		if len(text) < minSize {
			return
		}
		blocks = append(blocks, domain.ParagraphBlock{Text: text, Page: page})
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return blocks
}
