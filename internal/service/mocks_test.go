package service

import (
	"context"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/cache"
)

// mockInvoiceBackend implements port.InvoiceBackend with function fields so
// each test overrides only what it needs and can count calls.
type mockInvoiceBackend struct {
	listFn    func(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error)
	getFn     func(ctx context.Context, token, invoiceID string) (*domain.Invoice, error)
	deleteFn  func(ctx context.Context, token, invoiceID string) error
	jobFn     func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error)
	confirmFn func(ctx context.Context, token string, data *domain.ExtractedInvoiceData) (*domain.Invoice, error)

	listCalls    int
	confirmCalls int
}

func (m *mockInvoiceBackend) ListInvoices(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx, token, page, pageSize)
	}
	return &domain.InvoicePage{Page: page, PageSize: pageSize}, nil
}

func (m *mockInvoiceBackend) GetInvoice(ctx context.Context, token, invoiceID string) (*domain.Invoice, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token, invoiceID)
	}
	return &domain.Invoice{ID: invoiceID}, nil
}

func (m *mockInvoiceBackend) DeleteInvoice(ctx context.Context, token, invoiceID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token, invoiceID)
	}
	return nil
}

func (m *mockInvoiceBackend) UploadXML(ctx context.Context, token string, file domain.UploadFile) (*domain.UploadResponse, error) {
	return &domain.UploadResponse{ProcessingID: "proc-1", Status: domain.ProcessingQueued}, nil
}

func (m *mockInvoiceBackend) UploadPhotoBatch(ctx context.Context, token string, files []domain.UploadFile) (*domain.UploadResponse, error) {
	return &domain.UploadResponse{ProcessingID: "proc-2", Status: domain.ProcessingQueued}, nil
}

func (m *mockInvoiceBackend) UploadQRCode(ctx context.Context, token, qrURL string) (*domain.UploadResponse, error) {
	return &domain.UploadResponse{ProcessingID: "proc-3", Status: domain.ProcessingQueued}, nil
}

func (m *mockInvoiceBackend) GetProcessingJob(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
	if m.jobFn != nil {
		return m.jobFn(ctx, token, processingID)
	}
	return &domain.ProcessingJob{ID: processingID, Status: domain.ProcessingInProgress}, nil
}

func (m *mockInvoiceBackend) ConfirmInvoice(ctx context.Context, token string, data *domain.ExtractedInvoiceData) (*domain.Invoice, error) {
	m.confirmCalls++
	if m.confirmFn != nil {
		return m.confirmFn(ctx, token, data)
	}
	return &domain.Invoice{ID: "inv-1"}, nil
}

// mockEnrichment implements port.EnrichmentLookup.
type mockEnrichment struct {
	lookupFn    func(ctx context.Context, token, cnpjDigits string) (*domain.CNPJEnrichment, error)
	lookupCalls int
}

func (m *mockEnrichment) LookupCNPJ(ctx context.Context, token, cnpjDigits string) (*domain.CNPJEnrichment, error) {
	m.lookupCalls++
	if m.lookupFn != nil {
		return m.lookupFn(ctx, token, cnpjDigits)
	}
	return &domain.CNPJEnrichment{CNPJ: cnpjDigits, LegalName: "Empresa Exemplo LTDA"}, nil
}

// mockDashboardBackend implements port.DashboardBackend.
type mockDashboardBackend struct {
	totalsFn func(ctx context.Context, token, month string) (*domain.DashboardTotals, error)
	spendFn  func(ctx context.Context, token, month string) ([]domain.CategorySpend, error)
}

func (m *mockDashboardBackend) GetDashboardTotals(ctx context.Context, token, month string) (*domain.DashboardTotals, error) {
	if m.totalsFn != nil {
		return m.totalsFn(ctx, token, month)
	}
	return &domain.DashboardTotals{Month: month, InvoiceCount: 3, TotalSpent: 150}, nil
}

func (m *mockDashboardBackend) GetCategorySpend(ctx context.Context, token, month string) ([]domain.CategorySpend, error) {
	if m.spendFn != nil {
		return m.spendFn(ctx, token, month)
	}
	return []domain.CategorySpend{{Category: "Alimentação", Total: 100, Share: 0.66}}, nil
}

// mockSubscriptionBackend implements port.SubscriptionBackend.
type mockSubscriptionBackend struct {
	getFn    func(ctx context.Context, token string) (*domain.Subscription, error)
	usageFn  func(ctx context.Context, token string) (*domain.SubscriptionUsage, error)
	cancelFn func(ctx context.Context, token string) (*domain.Subscription, error)

	getCalls int
}

func (m *mockSubscriptionBackend) GetSubscription(ctx context.Context, token string) (*domain.Subscription, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return &domain.Subscription{ID: "sub-1", PlanName: "Pro", Status: domain.SubscriptionActive}, nil
}

func (m *mockSubscriptionBackend) GetUsage(ctx context.Context, token string) (*domain.SubscriptionUsage, error) {
	if m.usageFn != nil {
		return m.usageFn(ctx, token)
	}
	return &domain.SubscriptionUsage{InvoicesUsed: 2, InvoicesQuota: 50}, nil
}

func (m *mockSubscriptionBackend) ListPayments(ctx context.Context, token string, page, pageSize int) ([]domain.Payment, error) {
	return []domain.Payment{{ID: "pay-1", Amount: 29.9, Status: "paid"}}, nil
}

func (m *mockSubscriptionBackend) CreatePortalSession(ctx context.Context, token string) (*domain.PortalSession, error) {
	return &domain.PortalSession{URL: "https://billing.example/portal", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockSubscriptionBackend) CancelSubscription(ctx context.Context, token string) (*domain.Subscription, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, token)
	}
	return &domain.Subscription{ID: "sub-1", Status: domain.SubscriptionActive, CancelAtPeriodEnd: true}, nil
}

// mockAdminBackend implements port.AdminBackend.
type mockAdminBackend struct {
	reportFn func(ctx context.Context, token, period string) ([]domain.AdminReport, error)
	exportFn func(ctx context.Context, token, resource string) (*domain.CSVExport, error)
}

func (m *mockAdminBackend) ListUsers(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminUser, error) {
	return []domain.AdminUser{{ID: "u1", Email: "a@example.com", Role: "user"}}, nil
}

func (m *mockAdminBackend) GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error) {
	return &domain.AdminUser{ID: userID}, nil
}

func (m *mockAdminBackend) UpdateUser(ctx context.Context, token, userID string, updates map[string]any) (*domain.AdminUser, error) {
	return &domain.AdminUser{ID: userID}, nil
}

func (m *mockAdminBackend) ListCoupons(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.Coupon, error) {
	return nil, nil
}

func (m *mockAdminBackend) CreateCoupon(ctx context.Context, token string, req *domain.CouponRequest) (*domain.Coupon, error) {
	return &domain.Coupon{ID: "c1", Code: req.Code}, nil
}

func (m *mockAdminBackend) UpdateCoupon(ctx context.Context, token, couponID string, req *domain.CouponRequest) (*domain.Coupon, error) {
	return &domain.Coupon{ID: couponID, Code: req.Code}, nil
}

func (m *mockAdminBackend) DeleteCoupon(ctx context.Context, token, couponID string) error {
	return nil
}

func (m *mockAdminBackend) ListAdminPayments(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminPayment, error) {
	return nil, nil
}

func (m *mockAdminBackend) ListAuditLogs(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AuditLog, error) {
	return []domain.AuditLog{{ID: "a1", Action: "create", Resource: "coupon"}}, nil
}

func (m *mockAdminBackend) GetReport(ctx context.Context, token, period string) ([]domain.AdminReport, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, token, period)
	}
	return []domain.AdminReport{{Period: period, NewUsers: 10, Revenue: 299}}, nil
}

func (m *mockAdminBackend) ExportCSV(ctx context.Context, token, resource string) (*domain.CSVExport, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, token, resource)
	}
	return &domain.CSVExport{Filename: resource + ".csv", ContentType: "text/csv", Body: []byte("id\n1\n")}, nil
}

func newSessionCache() *cache.InMemory[*Session] {
	return cache.New[*Session](time.Minute)
}

func newPageCache() *cache.InMemory[*domain.InvoicePage] {
	return cache.New[*domain.InvoicePage](time.Minute)
}
