package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/pkg/errors"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:    "test-key",
		APIBase:   srv.URL,
		Model:     "text-embedding-3-small",
		Dimension: 3,
	})
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		require.Len(t, req.Input, 1)

		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Index: 0, Embedding: []float64{0.1, 0.2, 0.3}}},
		})
	})

	vec, err := e.Embed(context.Background(), "FII: HGLG11")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIEmbedder_BatchPreservesOrder(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		// Respond out of order; index decides placement.
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{
				{Index: 1, Embedding: []float64{0, 1}},
				{Index: 0, Embedding: []float64{1, 0}},
			},
		})
	})

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{1, 0}, vecs[0])
	assert.Equal(t, []float64{0, 1}, vecs[1])
}

func TestOpenAIEmbedder_UpstreamError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, errors.KindUpstreamFailure, errors.KindOf(err))
}

func TestOpenAIEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestOpenAIEmbedder_EmptyBatch(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty batch")
	})

	vecs, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
