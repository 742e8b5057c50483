package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Admin Console Handlers
// ============================================================

func adminFilter(r *http.Request) domain.AdminListFilter {
	page, pageSize := parsePagination(r)
	return domain.AdminListFilter{
		Query:    r.URL.Query().Get("q"),
		Status:   r.URL.Query().Get("status"),
		Page:     page,
		PageSize: pageSize,
	}
}

func adminListUsersHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/users")
		defer span.End()

		users, err := svc.ListUsers(ctx, TokenFromContext(ctx), adminFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func adminGetUserHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/users/{userId}")
		defer span.End()

		user, err := svc.GetUser(ctx, TokenFromContext(ctx), chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func adminUpdateUserHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /admin/users/{userId}")
		defer span.End()

		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
			return
		}
		user, err := svc.UpdateUser(ctx, TokenFromContext(ctx), chi.URLParam(r, "userId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func adminListCouponsHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/coupons")
		defer span.End()

		coupons, err := svc.ListCoupons(ctx, TokenFromContext(ctx), adminFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, coupons)
	}
}

func adminCreateCouponHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/coupons")
		defer span.End()

		var req domain.CouponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
			return
		}
		coupon, err := svc.CreateCoupon(ctx, TokenFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, coupon)
	}
}

func adminUpdateCouponHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /admin/coupons/{couponId}")
		defer span.End()

		var req domain.CouponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
			return
		}
		coupon, err := svc.UpdateCoupon(ctx, TokenFromContext(ctx), chi.URLParam(r, "couponId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, coupon)
	}
}

func adminDeleteCouponHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /admin/coupons/{couponId}")
		defer span.End()

		if err := svc.DeleteCoupon(ctx, TokenFromContext(ctx), chi.URLParam(r, "couponId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminListPaymentsHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/payments")
		defer span.End()

		payments, err := svc.ListPayments(ctx, TokenFromContext(ctx), adminFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

func adminListAuditLogsHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/audit-logs")
		defer span.End()

		entries, err := svc.ListAuditLogs(ctx, TokenFromContext(ctx), adminFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func adminReportHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/reports")
		defer span.End()

		period := r.URL.Query().Get("period")
		if period == "" {
			period = time.Now().Format("2006-01")
		}
		rows, err := svc.GetReport(ctx, TokenFromContext(ctx), period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func adminExportCSVHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/export/{resource}")
		defer span.End()

		export, err := svc.ExportCSV(ctx, TokenFromContext(ctx), chi.URLParam(r, "resource"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write(export.Body)
	}
}

func adminExportReportXLSXHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/reports/export")
		defer span.End()

		period := r.URL.Query().Get("period")
		if period == "" {
			period = time.Now().Format("2006-01")
		}
		data, filename, err := svc.ExportReportXLSX(ctx, TokenFromContext(ctx), period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func adminMetricsHandler(adminSvc *service.AdminService, reviewSvc *service.ReviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /admin/metrics")
		defer span.End()

		writeJSON(w, http.StatusOK, adminSvc.UsageMetrics(reviewSvc.ActiveSessions()))
	}
}
