// Package extractive implements sentence-scoring summarization over
// retrieved chunks. It needs no model: sentences are ranked by length
// plus a boost for signal words, then packed greedily into the length
// budget.
package extractive

import (
	"regexp"
	"sort"
	"strings"

	"github.com/documind-ai/documind/internal/core/domain"
)

const (
	defaultMaxLength = 150
	minSummaryLength = 30
	minContentLength = 50
	keywordBoost     = 50
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

var signalWords = []string{
	"important", "key", "main", "primary", "significant", "critical", "essential",
}

type Summarizer struct{}

func New() *Summarizer {
	return &Summarizer{}
}

func (s *Summarizer) Summarize(chunks []domain.RetrievalResult, query string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Chunk.Text != "" {
			texts = append(texts, chunk.Chunk.Text)
		}
	}
	combined := strings.Join(texts, " ")
	if len(strings.TrimSpace(combined)) < minContentLength {
		return "Insufficient content for summarization."
	}

	if query != "" {
		combined = "Query: " + query + "\n\nRelevant content: " + combined
	}
	return summarizeText(combined, maxLength)
}

func summarizeText(text string, maxLength int) string {
	sentences := splitSentences(text)
	if len(sentences) <= 3 {
		return clip(text, maxLength)
	}

	summary := strings.Join(selectSentences(sentences, maxLength), " ")
	if len(summary) < minSummaryLength && len(sentences) > 1 {
		summary = strings.Join(sentences[:2], " ")
	}
	return clip(summary, maxLength)
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// selectSentences ranks sentences by length plus a fixed boost per signal
// word, then packs the highest scoring ones into the budget. Packing stops
// at the first sentence that does not fit, so the summary stays made of the
// strongest material rather than padded with leftovers.
func selectSentences(sentences []string, maxLength int) []string {
	type scored struct {
		score    int
		sentence string
	}

	ranked := make([]scored, 0, len(sentences))
	for _, sentence := range sentences {
		score := len(sentence)
		lower := strings.ToLower(sentence)
		for _, word := range signalWords {
			if strings.Contains(lower, word) {
				score += keywordBoost
			}
		}
		ranked = append(ranked, scored{score: score, sentence: sentence})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var selected []string
	used := 0
	for _, item := range ranked {
		if used+len(item.sentence) > maxLength {
			break
		}
		selected = append(selected, item.sentence)
		used += len(item.sentence)
	}
	if len(selected) == 0 {
		return sentences[:2]
	}
	return selected
}

func clip(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}
