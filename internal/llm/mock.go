package llm

import (
	"context"
	"math"
	"sync"

	"github.com/kotae-ai/kotae/internal/vector"
)

// MockEmbedder is a deterministic embedder for tests. The same text always
// gets the same unit-length vector, derived from the text hash. Tests that
// need known similarities can preset exact vectors per text.
type MockEmbedder struct {
	dimensions int
	preset     map[string][]float32
	calls      int
	mu         sync.Mutex
}

// NewMockEmbedder returns an embedder producing vectors of the given dimensionality.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions, preset: make(map[string][]float32)}
}

// Preset registers a fixed vector to return for text instead of the hash embedding.
func (e *MockEmbedder) Preset(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preset[text] = vec
}

// Calls returns how many texts have been embedded so far.
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Embed returns a deterministic embedding for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	fixed, ok := e.preset[text]
	e.mu.Unlock()
	if ok {
		out := make([]float32, len(fixed))
		copy(out, fixed)
		return out, nil
	}
	h := hashText(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	vector.Normalize(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimensionality.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

func hashText(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// MockGenerator is a canned-response generator for tests. It records prompts
// so tests can assert on grounding context and call counts.
type MockGenerator struct {
	Response string
	Err      error

	prompts []string
	mu      sync.Mutex
}

// Generate returns the canned response (or error) and records the prompt.
func (g *MockGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}

// Calls returns how many times Generate was invoked.
func (g *MockGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// LastPrompt returns the most recent prompt, or "" when none.
func (g *MockGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// Close is a no-op for MockGenerator.
func (g *MockGenerator) Close() error {
	return nil
}
