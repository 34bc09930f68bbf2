package models

import (
	"strings"
	"unicode/utf8"

	"github.com/kotae-ai/kotae/internal/apperr"
)

// IngestRequest is the body for POST /api/v1/rag/ingest. Either Chunks or
// Transcript must be set; when only Transcript is given the server chunks it.
type IngestRequest struct {
	Chunks     []string      `json:"chunks,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	VideoID    string        `json:"video_id"`
	VideoInfo  VideoMetadata `json:"video_info"`
}

// Validate checks the request shape. Per-chunk length bounds are enforced by
// the ingestion pipeline, which knows the configured maximum.
func (r *IngestRequest) Validate() error {
	if strings.TrimSpace(r.VideoID) == "" {
		return apperr.Validation("video_id", "must not be empty")
	}
	if len(r.Chunks) == 0 && strings.TrimSpace(r.Transcript) == "" {
		return apperr.Validation("chunks", "either chunks or transcript must be provided")
	}
	return nil
}

// IngestResponse reports how many chunks were stored and how many were
// skipped as duplicates of previously ingested text.
type IngestResponse struct {
	Count             int `json:"count"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
}

// AskRequest is the body for POST /api/v1/rag/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate rejects empty questions and questions over maxLen characters.
func (r *AskRequest) Validate(maxLen int) error {
	if strings.TrimSpace(r.Question) == "" {
		return apperr.Validation("question", "must not be empty")
	}
	if maxLen > 0 && utf8.RuneCountInString(r.Question) > maxLen {
		return apperr.Validation("question", "exceeds maximum length of %d characters", maxLen)
	}
	return nil
}

// AnswerResponse carries the generated answer plus the sources that grounded
// it, ordered by descending relevance.
type AnswerResponse struct {
	Answer  string        `json:"answer"`
	Sources []QueryResult `json:"sources"`
}

// Summary levels select the prompt template used for summarization.
const (
	SummaryLevelQuick    = "quick"
	SummaryLevelDetailed = "detailed"
)

// SummarizeRequest is the body for POST /api/v1/summarize.
type SummarizeRequest struct {
	Text  string `json:"text"`
	Level string `json:"level,omitempty"`
}

// Validate checks the text bound and normalizes the level, defaulting to quick.
func (r *SummarizeRequest) Validate(maxLen int) error {
	if strings.TrimSpace(r.Text) == "" {
		return apperr.Validation("text", "must not be empty")
	}
	if maxLen > 0 && utf8.RuneCountInString(r.Text) > maxLen {
		return apperr.Validation("text", "exceeds maximum length of %d characters", maxLen)
	}
	switch r.Level {
	case "":
		r.Level = SummaryLevelQuick
	case SummaryLevelQuick, SummaryLevelDetailed:
	default:
		return apperr.Validation("level", "must be %q or %q", SummaryLevelQuick, SummaryLevelDetailed)
	}
	return nil
}

// SummarizeResponse is the body returned by POST /api/v1/summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}
