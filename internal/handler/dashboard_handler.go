package handler

import (
	"net/http"

	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard Handlers
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /dashboard")
		defer span.End()

		month := r.URL.Query().Get("month")
		summary, err := svc.Summary(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
