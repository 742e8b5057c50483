// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete backend API client.
package port

import (
	"context"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
)

// InvoiceBackend is the invoice surface of the remote analysis backend.
// Every call carries the end user's bearer token; the backend owns
// authentication and all business rules.
type InvoiceBackend interface {
	ListInvoices(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error)
	GetInvoice(ctx context.Context, token, invoiceID string) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, token, invoiceID string) error

	UploadXML(ctx context.Context, token string, file domain.UploadFile) (*domain.UploadResponse, error)
	UploadPhotoBatch(ctx context.Context, token string, files []domain.UploadFile) (*domain.UploadResponse, error)
	UploadQRCode(ctx context.Context, token, qrURL string) (*domain.UploadResponse, error)

	GetProcessingJob(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error)

	// ConfirmInvoice submits the edited snapshot. Rejections surface as
	// *domain.ErrInvalidCNPJ (HTTP 400 invalid_cnpj) or
	// *domain.ErrDuplicateInvoice (HTTP 409) so the UI state can be mapped.
	ConfirmInvoice(ctx context.Context, token string, data *domain.ExtractedInvoiceData) (*domain.Invoice, error)
}

// EnrichmentLookup resolves a CNPJ to its registered legal entity.
type EnrichmentLookup interface {
	LookupCNPJ(ctx context.Context, token, cnpjDigits string) (*domain.CNPJEnrichment, error)
}

// DashboardBackend provides the aggregated numbers the dashboard renders.
type DashboardBackend interface {
	GetDashboardTotals(ctx context.Context, token, month string) (*domain.DashboardTotals, error)
	GetCategorySpend(ctx context.Context, token, month string) ([]domain.CategorySpend, error)
}

// SubscriptionBackend is the billing surface of the backend.
type SubscriptionBackend interface {
	GetSubscription(ctx context.Context, token string) (*domain.Subscription, error)
	GetUsage(ctx context.Context, token string) (*domain.SubscriptionUsage, error)
	ListPayments(ctx context.Context, token string, page, pageSize int) ([]domain.Payment, error)
	CreatePortalSession(ctx context.Context, token string) (*domain.PortalSession, error)
	CancelSubscription(ctx context.Context, token string) (*domain.Subscription, error)
}

// AdminBackend is the admin-console surface of the backend.
type AdminBackend interface {
	ListUsers(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminUser, error)
	GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error)
	UpdateUser(ctx context.Context, token, userID string, updates map[string]any) (*domain.AdminUser, error)

	ListCoupons(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.Coupon, error)
	CreateCoupon(ctx context.Context, token string, req *domain.CouponRequest) (*domain.Coupon, error)
	UpdateCoupon(ctx context.Context, token, couponID string, req *domain.CouponRequest) (*domain.Coupon, error)
	DeleteCoupon(ctx context.Context, token, couponID string) error

	ListAdminPayments(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminPayment, error)
	ListAuditLogs(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AuditLog, error)
	GetReport(ctx context.Context, token, period string) ([]domain.AdminReport, error)

	// ExportCSV streams a backend-generated CSV for the given resource
	// (users, payments, audit_logs) as a file download.
	ExportCSV(ctx context.Context, token, resource string) (*domain.CSVExport, error)
}

// Cache provides generic caching with TTL and prefix invalidation.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
	Len() int
}
