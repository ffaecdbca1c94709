// File path: internal/api/analysis_handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mjharlow/reglens/internal/catalog"
	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/compliance"
	"github.com/mjharlow/reglens/internal/generate"
	"github.com/mjharlow/reglens/internal/pipeline"
)

type analysisRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs the full analysis pipeline for the submitted text and
// streams each event to the caller as a server-sent event.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no generation provider configured"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	filters := s.access.Filters(r)
	runID := uuid.NewString()
	logger.Info("analysis: run starting", "run_id", runID, "text_length", len(text), "acl", len(filters.AccessControlList))
	if s.catalog != nil {
		if err := s.catalog.StartRun(ctx, runID, len(text)); err != nil {
			logger.Warn("analysis: failed to record run start", "run_id", runID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(event compliance.Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	gen := generate.NewClient(s.provider, generate.WithTimeout(s.cfg.GenerationTimeout))
	pipe := pipeline.New(gen, s.search, pipeline.Config{
		MaxConcurrency: s.cfg.MaxConcurrency,
		DocumentLimit:  s.cfg.DocumentLimit,
	})
	stats, err := pipe.Run(ctx, text, filters, emit)

	status := catalog.StatusCompleted
	switch {
	case err == nil:
		logger.Info("analysis: run completed", "run_id", runID, "events", stats.Events, "errors", stats.Errors)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = catalog.StatusCanceled
		logger.Info("analysis: run canceled", "run_id", runID, "events", stats.Events)
	default:
		status = catalog.StatusFailed
		logger.Error("analysis: run failed", "run_id", runID, "error", err)
	}
	if s.catalog != nil {
		finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.catalog.FinishRun(finishCtx, runID, status, stats); err != nil {
			logger.Warn("analysis: failed to record run finish", "run_id", runID, "error", err)
		}
	}
}
