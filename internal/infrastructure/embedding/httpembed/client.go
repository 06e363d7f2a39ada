package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/infrastructure/resilience"
)

// Client talks to an embedding inference server. Batches are submitted in
// input order and the backend's output order is trusted to match, so the
// concatenated result preserves the caller's ordering regardless of how the
// backend parallelizes a batch internally.
type Client struct {
	baseURL    string
	model      string
	dimension  int
	batchSize  int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BatchSize  int
	Timeout    time.Duration
	Executor   *resilience.Executor
	HTTPClient *http.Client
}

func New(baseURL, model string, dimension int, options Options) *Client {
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimension:  dimension,
		batchSize:  batchSize,
		httpClient: httpClient,
		executor:   options.Executor,
	}
}

func (c *Client) Dimension() int { return c.dimension }

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// VerifyDimension probes the backend once and fails fast when its output
// dimension does not match the configured one. Intended for startup.
func (c *Client) VerifyDimension(ctx context.Context) error {
	_, err := c.embedBatch(ctx, []string{"dimension probe"})
	return err
}

type embedResponse struct {
	Embeddings      [][]float32   `json:"embeddings"`
	TokenEmbeddings [][][]float32 `json:"token_embeddings"`
	AttentionMask   [][]float32   `json:"attention_mask"`
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	request := map[string]any{
		"model": c.model,
		"input": batch,
	}

	var response embedResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/embed", request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, resilience.OpEmbedBatch, call, classifyEmbedError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapEmbeddingIfNeeded("embed batch", err)
	}

	vectors := response.Embeddings
	if len(vectors) == 0 && len(response.TokenEmbeddings) > 0 {
		vectors = make([][]float32, 0, len(response.TokenEmbeddings))
		for i, tokens := range response.TokenEmbeddings {
			var mask []float32
			if i < len(response.AttentionMask) {
				mask = response.AttentionMask[i]
			}
			vectors = append(vectors, MeanPool(tokens, mask))
		}
	}

	if len(vectors) != len(batch) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed batch",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(batch)),
		)
	}
	for i, vector := range vectors {
		if len(vector) != c.dimension {
			// Wrong dimensionality is a deployment misconfiguration, not a
			// transient failure; never retried.
			return nil, domain.WrapError(
				domain.ErrInvalidInput,
				"embed batch",
				fmt.Errorf("embedding %d has dimension %d, configured %d", i, len(vector), c.dimension),
			)
		}
	}
	return vectors, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "embed",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}
