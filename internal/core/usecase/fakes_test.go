package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/documind-ai/documind/internal/core/domain"
)

type repoFake struct {
	doc        *domain.Document
	docs       []domain.Document
	created    []*domain.Document
	getErr     error
	createErr  error
	updateErr  error
	deleteErr  error
	deleted    []string
	transition []domain.DocumentStatus
	claimed    []string
	failures   map[string]string
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, doc)
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", io.EOF)
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) ListByOwner(context.Context, string) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *repoFake) UpdateStatusFrom(_ context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.transition = append(append([]domain.DocumentStatus{}, from...), to)
	f.claimed = append(f.claimed, id)
	return nil
}

func (f *repoFake) SetFailure(_ context.Context, id string, message string) error {
	if f.failures == nil {
		f.failures = map[string]string{}
	}
	f.failures[id] = message
	return nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type chunkStoreFake struct {
	candidates []domain.OwnedChunk
	listErr    error
	putErr     error

	putDocumentID string
	putChunks     []domain.Chunk
	putMeta       map[string]any
	putCalls      int
}

func (f *chunkStoreFake) PutChunks(_ context.Context, documentID string, chunks []domain.Chunk, meta map[string]any) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putCalls++
	f.putDocumentID = documentID
	f.putChunks = chunks
	f.putMeta = meta
	return nil
}

func (f *chunkStoreFake) ListForOwner(_ context.Context, _ string, _ []string) ([]domain.OwnedChunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates, nil
}

type storageFake struct {
	saveErr   error
	savedKeys []string
	savedData []byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.savedKeys = append(f.savedKeys, key)
	f.savedData = raw
	return "/data/" + key, nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(f.savedData))), nil
}

func (f *storageFake) Provider() string { return "local" }

type dispatcherFake struct {
	err        error
	dispatched []string
}

func (f *dispatcherFake) Dispatch(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, documentID)
	return nil
}

type processorFake struct {
	processed chan string
	err       error
}

func (f *processorFake) ProcessByID(_ context.Context, documentID string) error {
	if f.processed != nil {
		f.processed <- documentID
	}
	return f.err
}

type extractorFake struct {
	blocks []domain.ParagraphBlock
	info   domain.DocumentInfo
	err    error
	panics bool
	calls  int
}

func (f *extractorFake) Extract(context.Context, string) ([]domain.ParagraphBlock, domain.DocumentInfo, error) {
	f.calls++
	if f.panics {
		panic("malformed xref table")
	}
	if f.err != nil {
		return nil, domain.DocumentInfo{}, f.err
	}
	return f.blocks, f.info, nil
}

type chunkerFake struct {
	chunks    []domain.Chunk
	truncated int
}

func (f *chunkerFake) Chunk([]domain.ParagraphBlock) ([]domain.Chunk, int) {
	return f.chunks, f.truncated
}

type embedderFake struct {
	queryVector []float32
	vectors     [][]float32
	err         error
	queryErr    error
	embedCalls  int
	queryCalls  int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryVector != nil {
		return f.queryVector, nil
	}
	return []float32{1, 0}, nil
}

func (f *embedderFake) Dimension() int { return 2 }

type summarizerFake struct {
	summary string
	chunks  []domain.RetrievalResult
	query   string
	maxLen  int
}

func (f *summarizerFake) Summarize(chunks []domain.RetrievalResult, query string, maxLength int) string {
	f.chunks = chunks
	f.query = query
	f.maxLen = maxLength
	return f.summary
}

func ownedChunk(id, docID, ownerID, text string, embedding []float32) domain.OwnedChunk {
	return domain.OwnedChunk{
		Chunk: domain.Chunk{
			ID:         id,
			DocumentID: docID,
			Text:       text,
			Embedding:  embedding,
		},
		Document: domain.Document{
			ID:      docID,
			OwnerID: ownerID,
			Status:  domain.StatusProcessed,
		},
	}
}
