// Package embedding generates vector representations of fund analyses.
package embedding

import "context"

// Embedder turns text into vectors. Vectors from different models are not
// comparable, so implementations must report a stable model identifier.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Model returns the embedding model identifier.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}
