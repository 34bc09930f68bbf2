// Package llm provides hosted-model access: text embeddings and text
// generation behind narrow interfaces so the ingestion and answer pipelines
// can be tested with deterministic fakes.
package llm

import "context"

// Embedder produces vector embeddings for text. Ingestion and retrieval must
// share one Embedder configuration; vectors from different models are not
// comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Generator produces text for a prompt. Used for both grounded answers and
// summarization.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Close() error
}
