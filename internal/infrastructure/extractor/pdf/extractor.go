package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

// Extractor reads a stored PDF and emits page-tagged paragraph blocks.
// Paragraphs shorter than minChunkSize characters are dropped.
type Extractor struct {
	storage      ports.ObjectStorage
	minChunkSize int
}

func New(storage ports.ObjectStorage, minChunkSize int) *Extractor {
	if minChunkSize <= 0 {
		minChunkSize = 50
	}
	return &Extractor{storage: storage, minChunkSize: minChunkSize}
}

func (e *Extractor) Extract(ctx context.Context, location string) (blocks []domain.ParagraphBlock, info domain.DocumentInfo, err error) {
	reader, err := e.storage.Open(ctx, location)
	if err != nil {
		return nil, domain.DocumentInfo{}, domain.WrapError(domain.ErrExtraction, "open source document", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.DocumentInfo{}, domain.WrapError(domain.ErrExtraction, "read source document", err)
	}

	// The pdf library panics on some malformed streams; such documents are
	// terminal extraction failures, not crashes.
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
			info = domain.DocumentInfo{}
			err = domain.WrapError(domain.ErrExtraction, "parse pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	doc, err := ledongthuc.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.DocumentInfo{}, domain.WrapError(domain.ErrExtraction, "parse pdf", err)
	}

	info = domain.DocumentInfo{
		PageCount: doc.NumPage(),
		Title:     trailerString(doc, "Title"),
		Author:    trailerString(doc, "Author"),
	}

	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return nil, domain.DocumentInfo{}, domain.WrapError(domain.ErrExtraction, fmt.Sprintf("extract page %d", pageNum), err)
		}
		blocks = append(blocks, paragraphsFromLines(lines, pageNum, e.minChunkSize)...)
	}

	return blocks, info, nil
}

// pageLines reconstructs the page's text lines in reading order. A vertical
// gap clearly larger than the page's usual line spacing is reported as an
// empty line so paragraph grouping can break on it.
func pageLines(page ledongthuc.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	spacing := typicalRowSpacing(rows)

	var lines []string
	for i, row := range rows {
		if i > 0 && spacing > 0 {
			gap := rows[i-1].Position - row.Position
			if float64(gap) > 1.8*float64(spacing) {
				lines = append(lines, "")
			}
		}
		var sb strings.Builder
		for _, text := range row.Content {
			sb.WriteString(text.S)
		}
		lines = append(lines, sb.String())
	}
	return lines, nil
}

func typicalRowSpacing(rows ledongthuc.Rows) int64 {
	var gaps []int64
	for i := 1; i < len(rows); i++ {
		gap := rows[i-1].Position - rows[i].Position
		if gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}

func trailerString(doc *ledongthuc.Reader, key string) string {
	info := doc.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	value := info.Key(key)
	if value.IsNull() {
		return ""
	}
	return strings.TrimSpace(value.RawString())
}
