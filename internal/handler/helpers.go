package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error    string                     `json:"error"`
	Code     string                     `json:"code,omitempty"`
	Hint     string                     `json:"hint,omitempty"`
	Fields   []string                   `json:"fields,omitempty"`
	Conflict *domain.PotentialDuplicate `json:"conflict,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// handleServiceError maps domain errors to HTTP responses. The confirm
// rejection contracts keep their structured payloads: invalid_cnpj carries
// the backend hint, a duplicate carries the conflicting record's summary.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var invalidCNPJ *domain.ErrInvalidCNPJ
	var duplicate *domain.ErrDuplicateInvoice
	var blocked *domain.ErrReviewBlocked
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var payment *domain.ErrPaymentRequired
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &invalidCNPJ):
		logger.Debug("invalid cnpj", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "CNPJ inválido",
			Code:  "invalid_cnpj",
			Hint:  invalidCNPJ.Hint,
		})
	case errors.As(err, &duplicate):
		logger.Debug("duplicate invoice", zap.String("error", err.Error()))
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:    "nota fiscal já cadastrada",
			Code:     "duplicate_invoice",
			Conflict: &duplicate.Conflict,
		})
	case errors.As(err, &blocked):
		logger.Debug("review blocked", zap.Strings("fields", blocked.Fields))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "corrija os campos destacados antes de confirmar",
			Code:   "review_blocked",
			Fields: blocked.Fields,
		})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &payment):
		logger.Debug("payment required", zap.String("error", err.Error()))
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("backend failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "serviço temporariamente indisponível")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
