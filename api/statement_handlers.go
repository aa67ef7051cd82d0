package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"royaltyengine/models"
	"royaltyengine/service"
)

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	statementID, ok := pathID(w, r, "statementID")
	if !ok {
		return
	}
	detail, err := s.statements.GetStatement(r.Context(), statementID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDetailResponse(detail))
}

func (s *Server) listStatements(w http.ResponseWriter, r *http.Request) {
	filter := models.StatementFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("runId"); raw != "" {
		runID, ok := parseInt64(w, "runId", raw)
		if !ok {
			return
		}
		filter.RunID = &runID
	}
	if raw := r.URL.Query().Get("creatorId"); raw != "" {
		creatorID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, service.NewInputError("creatorId", "must be a UUID"))
			return
		}
		filter.CreatorID = &creatorID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.StatementStatus(raw)
		filter.Status = &status
	}

	statements, err := s.statements.ListStatements(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponses(statements))
}

type disputeRequest struct {
	CreatorID uuid.UUID `json:"creatorId"`
	Reason    string    `json:"reason"`
}

func (s *Server) disputeStatement(w http.ResponseWriter, r *http.Request) {
	statementID, ok := pathID(w, r, "statementID")
	if !ok {
		return
	}
	var req disputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	statement, err := s.statements.DisputeStatement(r.Context(), statementID, req.CreatorID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(statement))
}

type resolveRequest struct {
	Resolution       string `json:"resolution"`
	AdjustmentCents  int64  `json:"adjustmentCents"`
	AdjustmentReason string `json:"adjustmentReason"`
	ResolvedBy       string `json:"resolvedBy"`
}

func (s *Server) resolveStatement(w http.ResponseWriter, r *http.Request) {
	statementID, ok := pathID(w, r, "statementID")
	if !ok {
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	statement, err := s.statements.ResolveDispute(r.Context(), statementID, req.Resolution, req.AdjustmentCents, req.AdjustmentReason, req.ResolvedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(statement))
}

type markPaidRequest struct {
	PaymentReference uuid.UUID `json:"paymentReference"`
}

func (s *Server) markStatementPaid(w http.ResponseWriter, r *http.Request) {
	statementID, ok := pathID(w, r, "statementID")
	if !ok {
		return
	}
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, service.NewInputError("body", "invalid JSON"))
		return
	}

	statement, err := s.statements.MarkPaid(r.Context(), statementID, req.PaymentReference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(statement))
}

func (s *Server) renderStatementDocument(w http.ResponseWriter, r *http.Request) {
	statementID, ok := pathID(w, r, "statementID")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	document, err := s.statements.RenderDocument(r.Context(), statementID, format)
	if err != nil {
		writeError(w, err)
		return
	}

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func parseInt64(w http.ResponseWriter, field, raw string) (int64, bool) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, service.NewInputError(field, "must be a numeric ID"))
		return 0, false
	}
	return value, true
}
