// Package summarize produces transcript summaries through the generation
// provider. It holds no state; the level only selects a prompt template.
package summarize

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kotae-ai/kotae/internal/apperr"
	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
)

const (
	quickStyle = "Provide a concise bullet list of key insights and a 2-3 sentence overview."

	detailedStyle = "Provide a structured, detailed summary with sections (Overview, Key Points, Examples, Takeaways)."
)

// Summarizer produces summaries of caller-supplied transcript text.
type Summarizer struct {
	generator    llm.Generator
	maxTextChars int
	maxTokens    int
}

// New creates a summarizer. maxTextChars bounds input length; 0 disables the bound.
func New(generator llm.Generator, maxTextChars, maxTokens int) *Summarizer {
	return &Summarizer{generator: generator, maxTextChars: maxTextChars, maxTokens: maxTokens}
}

// Summarize returns a summary of text at the given level (quick or detailed).
func (s *Summarizer) Summarize(ctx context.Context, text, level string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("text", "must not be empty")
	}
	if s.maxTextChars > 0 && utf8.RuneCountInString(text) > s.maxTextChars {
		return "", apperr.Validation("text", "exceeds maximum length of %d characters", s.maxTextChars)
	}
	style := quickStyle
	switch level {
	case models.SummaryLevelQuick, "":
	case models.SummaryLevelDetailed:
		style = detailedStyle
	default:
		return "", apperr.Validation("level", "must be %q or %q",
			models.SummaryLevelQuick, models.SummaryLevelDetailed)
	}

	var sb strings.Builder
	sb.WriteString("You are an expert learning assistant. Summarize clearly and accurately.\n\n")
	sb.WriteString("Summarize the following transcript. ")
	sb.WriteString(style)
	sb.WriteString("\n\nTranscript:\n")
	sb.WriteString(text)

	summary, err := s.generator.Generate(ctx, sb.String(), s.maxTokens)
	if err != nil {
		return "", apperr.Provider("generation", err)
	}
	return summary, nil
}
