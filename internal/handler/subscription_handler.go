package handler

import (
	"net/http"

	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Subscription Handlers
// ============================================================

func getSubscriptionHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /subscription")
		defer span.End()

		sub, err := svc.Get(ctx, TokenFromContext(ctx), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"subscription": sub,
			"plan_summary": service.PlanSummary(sub),
		})
	}
}

func getUsageHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /subscription/usage")
		defer span.End()

		usage, err := svc.Usage(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, usage)
	}
}

func listPaymentsHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /subscription/payments")
		defer span.End()

		page, pageSize := parsePagination(r)
		payments, err := svc.Payments(ctx, TokenFromContext(ctx), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

func portalSessionHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /subscription/portal")
		defer span.End()

		session, err := svc.OpenPortal(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

func cancelSubscriptionHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /subscription/cancel")
		defer span.End()

		sub, err := svc.Cancel(ctx, TokenFromContext(ctx), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
