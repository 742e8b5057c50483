package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Review Session Handlers
// ============================================================

func startReviewHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /review")
		defer span.End()

		var req struct {
			ProcessingID string `json:"processing_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProcessingID == "" {
			writeError(w, http.StatusBadRequest, "processing_id obrigatório")
			return
		}
		view, err := svc.Start(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), req.ProcessingID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func getReviewHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /review/{sessionId}")
		defer span.End()

		view, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func editHeaderHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /review/{sessionId}/header")
		defer span.End()

		var req struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
			writeError(w, http.StatusBadRequest, "field obrigatório")
			return
		}
		view, err := svc.EditHeader(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"), req.Field, req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func editItemHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /review/{sessionId}/items/{index}")
		defer span.End()

		var req struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
			writeError(w, http.StatusBadRequest, "field obrigatório")
			return
		}
		index := queryIndex(r)
		view, err := svc.EditItem(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"), index, req.Field, req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func addItemHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /review/{sessionId}/items")
		defer span.End()

		view, err := svc.AddItem(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func removeItemHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /review/{sessionId}/items/{index}")
		defer span.End()

		view, err := svc.RemoveItem(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"), queryIndex(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func useItemsSumHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /review/{sessionId}/use-items-sum")
		defer span.End()

		view, err := svc.UseItemsSum(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func enrichIssuerHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /review/{sessionId}/enrich")
		defer span.End()

		view, err := svc.EnrichIssuer(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func confirmReviewHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /review/{sessionId}/confirm")
		defer span.End()

		invoice, err := svc.Confirm(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, invoice)
	}
}

func abandonReviewHandler(svc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /review/{sessionId}")
		defer span.End()

		if err := svc.Abandon(ctx, UserIDFromContext(ctx), chi.URLParam(r, "sessionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// queryIndex parses the {index} URL parameter; malformed values become -1,
// which the review state machine treats as a no-op.
func queryIndex(r *http.Request) int {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return -1
	}
	return index
}
