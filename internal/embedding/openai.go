package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/fundlens/fundlens/internal/metrics"
	"github.com/fundlens/fundlens/pkg/errors"
)

// OpenAIEmbedder implements Embedder against OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client    *http.Client
	apiKey    string
	apiBase   string
	model     string
	dimension int
}

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	APIKey    string
	APIBase   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// DefaultOpenAIConfig returns sensible defaults for the OpenAI embedder.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIBase:   "https://api.openai.com/v1",
		Model:     "text-embedding-3-small",
		Dimension: 1536,
		Timeout:   30 * time.Second,
	}
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewInvalidInput("embedding.new", "openai api_key is required")
	}
	def := DefaultOpenAIConfig()
	if cfg.APIBase == "" {
		cfg.APIBase = def.APIBase
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = def.Dimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &OpenAIEmbedder{
		client:    &http.Client{Timeout: cfg.Timeout},
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || vectors[0] == nil {
		return nil, errors.NewUpstreamFailure("embedding.embed", "no embedding returned", nil)
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedBatch(ctx, texts)
	if err != nil {
		metrics.EmbeddingCalls.WithLabelValues(e.model, "error").Inc()
		return nil, err
	}
	metrics.EmbeddingCalls.WithLabelValues(e.model, "ok").Inc()
	return vectors, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	bodyBytes, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", e.apiBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamFailure("embedding.embed", "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewUpstreamFailure("embedding.embed",
			fmt.Sprintf("embedding failed: status=%d, body=%s", resp.StatusCode, string(body)), nil)
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, errors.NewUpstreamFailure("embedding.embed", "decode response", err)
	}

	// The API may return data out of order; index is authoritative.
	vectors := make([][]float64, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}
	return vectors, nil
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Dimension returns the embedding vector dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}
