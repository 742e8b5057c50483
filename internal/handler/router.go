package handler

import (
	"net/http"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/cnpj"
	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Dashboard    *service.DashboardService
	Invoices     *service.InvoiceService
	Review       *service.ReviewService
	Subscription *service.SubscriptionService
	Admin        *service.AdminService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the Nota Insight web app.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 (authenticated) ---
	r.Route("/v1", func(r chi.Router) {
		// Counted before auth so rejected requests show in the error rate;
		// probes and scrapes outside /v1 stay out of the usage numbers.
		r.Use(metrics.RequestCounterMiddleware)
		r.Use(AuthMiddleware(logger))

		// =============================================
		// 1. Dashboard
		// GET /v1/dashboard
		// =============================================
		r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))

		// =============================================
		// 2. Notas fiscais
		// =============================================
		r.Get("/invoices", listInvoicesHandler(svcs.Invoices, logger))
		r.Get("/invoices/window", invoiceWindowHandler(svcs.Invoices, logger))
		r.Get("/invoices/{invoiceId}", getInvoiceHandler(svcs.Invoices, logger))
		r.Delete("/invoices/{invoiceId}", deleteInvoiceHandler(svcs.Invoices, logger))

		// =============================================
		// 3. Envio (XML, fotos, QR code) e extração
		// =============================================
		r.Post("/invoices/upload/xml", uploadXMLHandler(svcs.Invoices, logger))
		r.Post("/invoices/upload/photos", uploadPhotosHandler(svcs.Invoices, logger))
		r.Post("/invoices/upload/qrcode", uploadQRCodeHandler(svcs.Invoices, logger))
		r.Get("/processing/{processingId}", processingStatusHandler(svcs.Invoices, logger))

		// =============================================
		// 4. Revisão da nota extraída
		// =============================================
		r.Post("/review", startReviewHandler(svcs.Review, logger))
		r.Get("/review/{sessionId}", getReviewHandler(svcs.Review, logger))
		r.Delete("/review/{sessionId}", abandonReviewHandler(svcs.Review, logger))
		r.Patch("/review/{sessionId}/header", editHeaderHandler(svcs.Review, logger))
		r.Post("/review/{sessionId}/items", addItemHandler(svcs.Review, logger))
		r.Patch("/review/{sessionId}/items/{index}", editItemHandler(svcs.Review, logger))
		r.Delete("/review/{sessionId}/items/{index}", removeItemHandler(svcs.Review, logger))
		r.Post("/review/{sessionId}/use-items-sum", useItemsSumHandler(svcs.Review, logger))
		r.Post("/review/{sessionId}/enrich", enrichIssuerHandler(svcs.Review, logger))
		r.Post("/review/{sessionId}/confirm", confirmReviewHandler(svcs.Review, logger))

		// =============================================
		// 5. CNPJ (validação local, sem backend)
		// =============================================
		r.Get("/cnpj/validate", cnpjValidateHandler())

		// =============================================
		// 6. Categorias (tabela fechada)
		// =============================================
		r.Get("/categories", categoriesHandler())

		// =============================================
		// 7. Assinatura
		// =============================================
		r.Get("/subscription", getSubscriptionHandler(svcs.Subscription, logger))
		r.Get("/subscription/usage", getUsageHandler(svcs.Subscription, logger))
		r.Get("/subscription/payments", listPaymentsHandler(svcs.Subscription, logger))
		r.Post("/subscription/portal", portalSessionHandler(svcs.Subscription, logger))
		r.Post("/subscription/cancel", cancelSubscriptionHandler(svcs.Subscription, logger))

		// =============================================
		// 8. Console administrativo
		// =============================================
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly(logger))

			r.Get("/users", adminListUsersHandler(svcs.Admin, logger))
			r.Get("/users/{userId}", adminGetUserHandler(svcs.Admin, logger))
			r.Patch("/users/{userId}", adminUpdateUserHandler(svcs.Admin, logger))

			r.Get("/coupons", adminListCouponsHandler(svcs.Admin, logger))
			r.Post("/coupons", adminCreateCouponHandler(svcs.Admin, logger))
			r.Put("/coupons/{couponId}", adminUpdateCouponHandler(svcs.Admin, logger))
			r.Delete("/coupons/{couponId}", adminDeleteCouponHandler(svcs.Admin, logger))

			r.Get("/payments", adminListPaymentsHandler(svcs.Admin, logger))
			r.Get("/audit-logs", adminListAuditLogsHandler(svcs.Admin, logger))
			r.Get("/reports", adminReportHandler(svcs.Admin, logger))
			r.Get("/reports/export", adminExportReportXLSXHandler(svcs.Admin, logger))
			r.Get("/export/{resource}", adminExportCSVHandler(svcs.Admin, logger))
			r.Get("/metrics", adminMetricsHandler(svcs.Admin, svcs.Review, logger))
		})
	})

	return r
}

// cnpjValidateHandler validates and formats a CNPJ locally, without any
// backend call. The review screen uses it for as-you-type feedback.
func cnpjValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := r.URL.Query().Get("cnpj")
		formatted := cnpj.Format(value)
		writeJSON(w, http.StatusOK, map[string]any{
			"cnpj":      formatted,
			"digits":    cnpj.Digits(value),
			"valid":     cnpj.Valid(value),
			"formatted": formatted,
		})
	}
}

// categoriesHandler serves the closed category table the item editor renders.
func categoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]map[string]any, 0)
		for _, c := range domain.Categories() {
			out = append(out, map[string]any{
				"name":          c,
				"subcategories": domain.Subcategories(c),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status: "healthy",
			Services: []domain.ServiceHealth{
				{Name: "bff", Status: "healthy", LatencyMs: 0, LastChecked: now},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
