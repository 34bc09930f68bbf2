// Package answer implements retrieval-grounded question answering over the
// knowledge base.
package answer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/apperr"
	"github.com/kotae-ai/kotae/internal/config"
	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/vector"
)

// NoKnowledgeAnswer is returned, without any provider call, when the
// knowledge base holds no records.
const NoKnowledgeAnswer = "I don't have any transcripts to answer from yet. Ingest a video first."

// Engine answers questions by retrieving the most similar stored chunks and
// grounding a generation call in them.
type Engine struct {
	store     storage.Store
	index     vector.Index
	embedder  llm.Embedder
	generator llm.Generator
	config    *config.PipelineConfig
	logger    *zap.Logger // optional
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an answer engine. The embedder must be the same one the
// knowledge base was built with; vectors from different embedders are not
// comparable.
func NewEngine(
	store storage.Store,
	index vector.Index,
	embedder llm.Embedder,
	generator llm.Generator,
	cfg *config.PipelineConfig,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:     store,
		index:     index,
		embedder:  embedder,
		generator: generator,
		config:    cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask validates the question, retrieves the top-K most similar chunks, and
// asks the generation provider to answer from them alone. Returns the answer
// plus the sources that made it into the grounding context, highest score
// first. On an empty knowledge base it returns NoKnowledgeAnswer without
// calling either provider.
func (e *Engine) Ask(ctx context.Context, question string) (string, []models.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, apperr.Validation("question", "must not be empty")
	}
	if e.config.MaxQuestionChars > 0 && utf8.RuneCountInString(question) > e.config.MaxQuestionChars {
		return "", nil, apperr.Validation("question",
			"exceeds maximum length of %d characters", e.config.MaxQuestionChars)
	}

	if e.index.Size() == 0 {
		return NoKnowledgeAnswer, nil, nil
	}

	queryVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, apperr.Provider("embedding", err)
	}

	topK := e.config.TopK
	if topK <= 0 {
		topK = 5
	}
	hits, err := e.index.Search(ctx, queryVec, topK)
	if err != nil {
		return "", nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return NoKnowledgeAnswer, nil, nil
	}

	results := make([]models.QueryResult, 0, len(hits))
	for _, hit := range hits {
		rec, err := e.store.GetRecord(ctx, hit.ID)
		if err != nil {
			return "", nil, fmt.Errorf("load record %s: %w", hit.ID, err)
		}
		results = append(results, models.QueryResult{
			Text:     rec.Content,
			Score:    hit.Score,
			Metadata: rec.Metadata,
		})
	}

	grounding, included := assembleContext(results, e.config.MaxContextChars)
	if len(included) == 0 {
		return NoKnowledgeAnswer, nil, nil
	}

	prompt := buildPrompt(question, grounding)
	if e.logger != nil {
		e.logger.Debug("asking generation provider",
			zap.Int("sources", len(included)),
			zap.Int("context_chars", len(grounding)))
	}
	answer, err := e.generator.Generate(ctx, prompt, e.config.MaxAnswerTokens)
	if err != nil {
		// Never substitute a guessed answer for a failed generation.
		return "", nil, apperr.Provider("generation", err)
	}
	return answer, included, nil
}

// buildPrompt constrains the model to the retrieved context.
func buildPrompt(question, context string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Answer the question using ONLY the context.\n")
	sb.WriteString("If the answer isn't in the context, say you don't know.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
