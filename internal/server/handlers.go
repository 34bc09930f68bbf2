package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/answer"
	"github.com/kotae-ai/kotae/internal/apperr"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/transcript"
)

// Token buffers added to pre-flight estimates, covering prompt scaffolding
// and the response.
const (
	askTokenBuffer       = 1000
	summarizeTokenBuffer = 500
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}

	chunks := req.Chunks
	if len(chunks) == 0 {
		text := transcript.PlainText(req.Transcript)
		chunks = transcript.Chunk(text, s.config.Pipeline.MaxChunkChars)
	}
	s.logger.Debug("ingest request",
		zap.String("video_id", req.VideoID), zap.Int("chunks", len(chunks)))

	estimate := 0
	for _, c := range chunks {
		estimate += s.estimator.Estimate(c)
	}
	if err := s.governor.Reserve(estimate); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}

	accepted, duplicates, err := s.kb.Ingest(r.Context(), chunks, req.VideoID, req.VideoInfo)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondTaxonomyError(w, err)
		return
	}
	// Duplicates were never embedded; record a proportional share of the estimate.
	if accepted > 0 && len(chunks) > 0 {
		s.governor.Record(0, 0, estimate*accepted/len(chunks))
	}
	s.respondJSON(w, http.StatusOK, models.IngestResponse{
		Count:             accepted,
		DuplicatesSkipped: duplicates,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Pipeline.MaxQuestionChars); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}
	s.logger.Debug("ask request", zap.Int("question_chars", len(req.Question)))

	questionTokens := s.estimator.Estimate(req.Question)
	if err := s.governor.Reserve(questionTokens + askTokenBuffer); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}

	answerText, sources, err := s.engine.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondTaxonomyError(w, err)
		return
	}
	// The empty-base answer is deterministic and made no provider calls;
	// charging the ledger for it would drain the budget for free requests.
	if answerText != answer.NoKnowledgeAnswer {
		contextTokens := 0
		for _, src := range sources {
			contextTokens += s.estimator.Estimate(src.Text)
		}
		s.governor.Record(questionTokens+contextTokens, s.estimator.Estimate(answerText), questionTokens)
	}

	if sources == nil {
		sources = []models.QueryResult{}
	}
	s.respondJSON(w, http.StatusOK, models.AnswerResponse{
		Answer:  answerText,
		Sources: sources,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Pipeline.MaxTextChars); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}
	s.logger.Debug("summarize request",
		zap.String("level", req.Level), zap.Int("text_chars", len(req.Text)))

	textTokens := s.estimator.Estimate(req.Text)
	if err := s.governor.Reserve(textTokens + summarizeTokenBuffer); err != nil {
		s.respondTaxonomyError(w, err)
		return
	}

	summary, err := s.summarizer.Summarize(r.Context(), req.Text, req.Level)
	if err != nil {
		s.logger.Error("summarize failed", zap.Error(err))
		s.respondTaxonomyError(w, err)
		return
	}
	s.governor.Record(textTokens, s.estimator.Estimate(summary), 0)

	s.respondJSON(w, http.StatusOK, models.SummarizeResponse{Summary: summary})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	s.logger.Debug("delete video request", zap.String("video_id", videoID))
	removed, err := s.kb.DeleteVideo(r.Context(), videoID)
	if err != nil {
		s.logger.Error("delete video failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"video_id": videoID,
		"removed":  removed,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("knowledge base reset requested")
	if err := s.kb.Reset(r.Context()); err != nil {
		s.logger.Error("reset failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	recordCount, err := s.store.CountRecords(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	usage := s.governor.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records":           recordCount,
		"vector_index_size": s.kb.Size(),
		"config": map[string]interface{}{
			"provider":           s.config.LLM.Provider,
			"dimensions":         s.config.LLM.Dimensions,
			"top_k":              s.config.Pipeline.TopK,
			"max_chunk_chars":    s.config.Pipeline.MaxChunkChars,
			"max_question_chars": s.config.Pipeline.MaxQuestionChars,
			"database_path":      s.config.Storage.DatabasePath,
		},
		"token_usage": usage,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondTaxonomyError maps the error taxonomy to HTTP statuses: validation
// 400, budget 429, provider 502, anything else 500.
func (s *Server) respondTaxonomyError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case apperr.IsBudget(err):
		s.respondError(w, http.StatusTooManyRequests, err.Error())
	case apperr.IsProvider(err):
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
