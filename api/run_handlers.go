package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"royaltyengine/models"
	"royaltyengine/service"
)

type createRunRequest struct {
	PeriodStart   string `json:"periodStart"`
	PeriodEnd     string `json:"periodEnd"`
	Notes         string `json:"notes"`
	CreatedBy     string `json:"createdBy"`
	AutoCalculate bool   `json:"autoCalculate"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	periodStart, err := time.Parse(dateFormat, req.PeriodStart)
	if err != nil {
		writeError(w, service.NewInputError("periodStart", "expected YYYY-MM-DD"))
		return
	}
	periodEnd, err := time.Parse(dateFormat, req.PeriodEnd)
	if err != nil {
		writeError(w, service.NewInputError("periodEnd", "expected YYYY-MM-DD"))
		return
	}

	run, err := s.runs.CreateRun(r.Context(), periodStart, periodEnd, req.Notes, req.CreatedBy, req.AutoCalculate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunResponse(run))
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := models.RunFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.RunStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("containsDay"); raw != "" {
		day, err := time.Parse(dateFormat, raw)
		if err != nil {
			writeError(w, service.NewInputError("containsDay", "expected YYYY-MM-DD"))
			return
		}
		filter.ContainsDay = &day
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponses(runs))
}

type recalculateRequest struct {
	ForceRecalculation bool `json:"forceRecalculation"`
}

func (s *Server) recalculateRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	var req recalculateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, service.NewInputError("body", "invalid JSON"))
			return
		}
	}

	run, err := s.runs.Recalculate(r.Context(), runID, req.ForceRecalculation)
	if err != nil {
		writeError(w, err)
		return
	}
	// 202: the calculation itself runs in the background.
	writeJSON(w, http.StatusAccepted, toRunResponse(run))
}

func (s *Server) validateRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	report, err := s.validator.ValidateRun(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type reviewRunRequest struct {
	Approve          bool   `json:"approve"`
	Notes            string `json:"notes"`
	ReviewedBy       string `json:"reviewedBy"`
	OverrideWarnings bool   `json:"overrideWarnings"`
}

func (s *Server) reviewRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	var req reviewRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	run, err := s.runs.ReviewRun(r.Context(), runID, req.Approve, req.Notes, req.ReviewedBy, req.OverrideWarnings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

type rollbackRunRequest struct {
	Reason        string                 `json:"reason"`
	RequestedBy   string                 `json:"requestedBy"`
	ForceRollback bool                   `json:"forceRollback"`
	Metadata      map[string]interface{} `json:"metadata"`
}

func (s *Server) rollbackRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	var req rollbackRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	run, err := s.runs.RollbackRun(r.Context(), runID, req.Reason, req.RequestedBy, req.Metadata, req.ForceRollback)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) resetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	run, err := s.runs.ResetFailedRun(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) markRunReviewed(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "runID")
	if !ok {
		return
	}
	count, err := s.statements.MarkReviewed(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reviewed": count})
}

// pathID parses a numeric URL parameter, writing a 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, service.NewInputError(param, "must be a numeric ID"))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
