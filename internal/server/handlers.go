package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/insight-scraper/internal/pipeline"
	"github.com/jonathan/insight-scraper/internal/types"
)

const maxBodyBytes = 1 << 20

// AnalyzeRequest is the body of /api/analyze and /api/analyze/stream.
type AnalyzeRequest struct {
	APIKey  string `json:"apiKey,omitempty"`
	Goal    string `json:"analysisGoal" validate:"required,max=64"`
	Sources string `json:"sites" validate:"max=65536"`
}

// AnalyzeResponse reports one finished run. Message is set for normal
// completions and Error for error statuses.
type AnalyzeResponse struct {
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
	Status         string          `json:"status"`
	BatchID        string          `json:"batch_id"`
	Columns        []types.Column  `json:"columns"`
	Logs           []string        `json:"logs"`
	RecordsWritten int64           `json:"records_written"`
	Data           []types.Insight `json:"data"`
}

// GoalResponse describes one analysis goal.
type GoalResponse struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Group   string         `json:"group"`
	Columns []types.Column `json:"columns"`
}

// DiscoverRequest is the body of /api/discover.
type DiscoverRequest struct {
	Query string `json:"query" validate:"required,max=512"`
}

// SearchRequest is the body of /api/search.
type SearchRequest struct {
	Term  string `json:"searchTerm" validate:"required,max=512"`
	Limit int    `json:"limit" validate:"gte=0,lte=500"`
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		ve := validationError(err)
		s.errorResponse(w, HTTPStatus(ve), ve.Error())
		return false
	}
	return true
}

// handleListGoals returns the goal catalog in display order.
func (s *Server) handleListGoals(w http.ResponseWriter, _ *http.Request) {
	list := s.goals.List()
	out := make([]GoalResponse, 0, len(list))
	for _, t := range list {
		out = append(out, GoalResponse{ID: t.ID, Label: t.Label, Group: t.Group, Columns: t.Columns()})
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) runRequest(req AnalyzeRequest, onProgress pipeline.ProgressCallback) pipeline.RunRequest {
	credential := strings.TrimSpace(req.APIKey)
	if credential == "" {
		credential = s.apiKey
	}
	return pipeline.RunRequest{
		Credential: credential,
		GoalID:     req.Goal,
		Sources:    req.Sources,
		OnProgress: onProgress,
	}
}

// buildResponse turns a run result into the response body, reading the
// stored rows back on success.
func (s *Server) buildResponse(r *http.Request, res *pipeline.RunResult) AnalyzeResponse {
	resp := AnalyzeResponse{
		Status:         string(res.Status),
		BatchID:        res.BatchID.String(),
		Columns:        res.Columns,
		Logs:           res.Log,
		RecordsWritten: res.RecordsWritten,
		Data:           []types.Insight{},
	}
	if resp.Columns == nil {
		resp.Columns = []types.Column{}
	}
	if resp.Logs == nil {
		resp.Logs = []string{}
	}

	switch res.Status {
	case pipeline.StatusSuccess:
		resp.Message = fmt.Sprintf("Analysis complete. %d insights saved.", res.RecordsWritten)
	case pipeline.StatusNoResults:
		resp.Message = "Analysis complete, but no new insights were found."
		return resp
	default:
		resp.Error = string(res.Status)
		if n := len(res.Log); n > 0 {
			resp.Error = res.Log[n-1]
		}
		return resp
	}

	stored, err := s.insights.ListByBatch(r.Context(), res.BatchID)
	if err != nil {
		s.logger.Warn("failed to read back batch",
			zap.String("batch_id", resp.BatchID), zap.Error(err))
		return resp
	}
	resp.Data = stored
	return resp
}

// handleAnalyze runs one analysis and returns its result once finished.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res := s.runner.Run(r.Context(), s.runRequest(req, nil))
	s.jsonResponse(w, RunStatusCode(res.Status), s.buildResponse(r, res))
}

// handleAnalyzeStream runs one analysis and streams its log via SSE.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)

	onProgress := func(e pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", e); err != nil {
			s.logger.Debug("progress event dropped", zap.Error(err))
		}
	}
	res := s.runner.Run(r.Context(), s.runRequest(req, onProgress))
	resp := s.buildResponse(r, res)
	if res.Status.IsError() {
		sse.WriteError(res.Err().Error())
	}
	sse.WriteComplete(resp)
}

// handleDiscover previews the URLs a #google directive would analyze.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if s.discoverer == nil {
		err := &ErrNotConfigured{Feature: "source discovery"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	var req DiscoverRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	urls, err := s.discoverer.Discover(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("discovery failed", zap.String("query", req.Query), zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "Discovery failed: "+err.Error())
		return
	}
	if urls == nil {
		urls = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"query": req.Query, "urls": urls})
}

// handleSearch runs a keyword query over indexed insights.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		err := &ErrNotConfigured{Feature: "insight search"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	var req SearchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	hits, err := s.searcher.Search(r.Context(), req.Term, req.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("term", req.Term), zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "Search failed: "+err.Error())
		return
	}
	if hits == nil {
		hits = []map[string]any{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"data": hits})
}

// handleListInsights returns the newest insights, optionally for one goal.
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	insights, err := s.insights.List(r.Context(), r.URL.Query().Get("goal"), limit)
	if err != nil {
		s.logger.Error("list insights failed", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"data": insights})
}

// handleBatchInsights returns every insight written by one run.
func (s *Server) handleBatchInsights(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(chi.URLParam(r, "batch_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid batch ID format")
		return
	}

	insights, err := s.insights.ListByBatch(r.Context(), batchID)
	if err != nil {
		s.logger.Error("list batch failed", zap.String("batch_id", batchID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(insights) == 0 {
		s.errorResponse(w, http.StatusNotFound, "Batch not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batch_id": batchID.String(), "data": insights})
}
