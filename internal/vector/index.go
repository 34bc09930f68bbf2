// Package vector provides the embedding index and similarity search.
package vector

import "context"

// Index stores embedding vectors keyed by record fingerprint and supports
// nearest-neighbor search. All vectors must have the dimensionality the index
// was created with; mismatches are rejected, never silently truncated.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
	Reset() error
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID string
	// Score is the inner product with the query. Vectors are stored
	// unit-normalized, so this equals cosine similarity.
	Score float64
}
