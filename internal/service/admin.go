package service

import (
	"context"
	"fmt"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/port"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Resources accepted by the CSV export passthrough.
var exportableResources = map[string]bool{
	"users":      true,
	"payments":   true,
	"audit_logs": true,
}

// AdminService serves the admin console: user management, coupons,
// payments, audit trail and report exports.
type AdminService struct {
	backend port.AdminBackend
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAdminService creates the admin service.
func NewAdminService(backend port.AdminBackend, logger *zap.Logger, metrics *observability.Metrics) *AdminService {
	return &AdminService{backend: backend, logger: logger, metrics: metrics}
}

func normalizeFilter(f domain.AdminListFilter) domain.AdminListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 25
	}
	return f
}

// ListUsers returns the admin users table.
func (s *AdminService) ListUsers(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "admin.ListUsers")
	defer span.End()
	return s.backend.ListUsers(ctx, token, normalizeFilter(f))
}

// GetUser returns one user for the detail view.
func (s *AdminService) GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "admin.GetUser")
	defer span.End()
	return s.backend.GetUser(ctx, token, userID)
}

// UpdateUser applies a partial update. Only the whitelisted fields are
// forwarded; anything else is rejected before the backend call.
func (s *AdminService) UpdateUser(ctx context.Context, token, userID string, updates map[string]any) (*domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "admin.UpdateUser")
	defer span.End()

	allowed := map[string]bool{"role": true, "is_active": true, "plan_name": true}
	for k := range updates {
		if !allowed[k] {
			return nil, &domain.ErrValidation{Field: k, Message: "campo não editável"}
		}
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "updates", Message: "nenhum campo informado"}
	}

	user, err := s.backend.UpdateUser(ctx, token, userID, updates)
	if err != nil {
		s.metrics.IncrBackendError("admin.users.update")
		return nil, err
	}
	s.logger.Info("admin user update", zap.String("user_id", userID))
	return user, nil
}

// ListCoupons returns the coupon table.
func (s *AdminService) ListCoupons(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.Coupon, error) {
	ctx, span := tracer.Start(ctx, "admin.ListCoupons")
	defer span.End()
	return s.backend.ListCoupons(ctx, token, normalizeFilter(f))
}

// CreateCoupon validates and creates a coupon.
func (s *AdminService) CreateCoupon(ctx context.Context, token string, req *domain.CouponRequest) (*domain.Coupon, error) {
	ctx, span := tracer.Start(ctx, "admin.CreateCoupon")
	defer span.End()

	if err := validateCoupon(req); err != nil {
		return nil, err
	}
	coupon, err := s.backend.CreateCoupon(ctx, token, req)
	if err != nil {
		s.metrics.IncrBackendError("admin.coupons.create")
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", coupon.Code))
	return coupon, nil
}

// UpdateCoupon validates and updates a coupon.
func (s *AdminService) UpdateCoupon(ctx context.Context, token, couponID string, req *domain.CouponRequest) (*domain.Coupon, error) {
	ctx, span := tracer.Start(ctx, "admin.UpdateCoupon")
	defer span.End()

	if err := validateCoupon(req); err != nil {
		return nil, err
	}
	return s.backend.UpdateCoupon(ctx, token, couponID, req)
}

// DeleteCoupon removes a coupon.
func (s *AdminService) DeleteCoupon(ctx context.Context, token, couponID string) error {
	ctx, span := tracer.Start(ctx, "admin.DeleteCoupon")
	defer span.End()
	return s.backend.DeleteCoupon(ctx, token, couponID)
}

func validateCoupon(req *domain.CouponRequest) error {
	if req.Code == "" {
		return &domain.ErrValidation{Field: "code", Message: "código obrigatório"}
	}
	if req.PercentOff == 0 && req.AmountOff == 0 {
		return &domain.ErrValidation{Field: "percent_off", Message: "informe um desconto percentual ou fixo"}
	}
	if req.PercentOff < 0 || req.PercentOff > 100 {
		return &domain.ErrValidation{Field: "percent_off", Message: "percentual deve estar entre 0 e 100"}
	}
	if req.AmountOff < 0 {
		return &domain.ErrValidation{Field: "amount_off", Message: "valor não pode ser negativo"}
	}
	if req.MaxUses < 0 {
		return &domain.ErrValidation{Field: "max_uses", Message: "limite de usos não pode ser negativo"}
	}
	return nil
}

// ListPayments returns the cross-user payments table.
func (s *AdminService) ListPayments(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminPayment, error) {
	ctx, span := tracer.Start(ctx, "admin.ListPayments")
	defer span.End()
	return s.backend.ListAdminPayments(ctx, token, normalizeFilter(f))
}

// AuditEntry is an audit log row with its display labels resolved.
type AuditEntry struct {
	domain.AuditLog
	ActionLabel   string `json:"action_label"`
	ResourceLabel string `json:"resource_label"`
}

// ListAuditLogs returns the audit trail with display labels resolved from
// the closed label tables (unknown values fall back to the raw string).
func (s *AdminService) ListAuditLogs(ctx context.Context, token string, f domain.AdminListFilter) ([]AuditEntry, error) {
	ctx, span := tracer.Start(ctx, "admin.ListAuditLogs")
	defer span.End()

	logs, err := s.backend.ListAuditLogs(ctx, token, normalizeFilter(f))
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, len(logs))
	for i, l := range logs {
		entries[i] = AuditEntry{
			AuditLog:      l,
			ActionLabel:   domain.AuditActionLabel(l.Action),
			ResourceLabel: domain.AuditResourceLabel(l.Resource),
		}
	}
	return entries, nil
}

// GetReport returns aggregated report rows for a period.
func (s *AdminService) GetReport(ctx context.Context, token, period string) ([]domain.AdminReport, error) {
	ctx, span := tracer.Start(ctx, "admin.GetReport")
	defer span.End()
	return s.backend.GetReport(ctx, token, period)
}

// ExportCSV passes through a backend-generated CSV download.
func (s *AdminService) ExportCSV(ctx context.Context, token, resource string) (*domain.CSVExport, error) {
	ctx, span := tracer.Start(ctx, "admin.ExportCSV")
	defer span.End()

	if !exportableResources[resource] {
		return nil, &domain.ErrValidation{Field: "resource", Message: "recurso não exportável: " + resource}
	}
	export, err := s.backend.ExportCSV(ctx, token, resource)
	if err != nil {
		s.metrics.IncrBackendError("admin.export_csv")
		return nil, err
	}
	s.logger.Info("csv export served",
		zap.String("resource", resource),
		zap.Int("bytes", len(export.Body)),
	)
	return export, nil
}

// ExportReportXLSX builds a spreadsheet from the aggregated report rows.
// Unlike the CSV exports this one is generated here, not by the backend.
func (s *AdminService) ExportReportXLSX(ctx context.Context, token, period string) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "admin.ExportReportXLSX")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("admin.export_xlsx", time.Since(start)) }()

	rows, err := s.backend.GetReport(ctx, token, period)
	if err != nil {
		s.metrics.IncrBackendError("admin.reports")
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Relatório"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Período", "Novos usuários", "Usuários ativos", "Notas adicionadas", "Receita (R$)", "Cancelamentos"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		values := []any{row.Period, row.NewUsers, row.ActiveUsers, row.InvoicesAdded, row.Revenue, row.ChurnedUsers}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "F1", style)
	}
	f.SetColWidth(sheet, "A", "F", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write report workbook: %w", err)
	}
	filename := fmt.Sprintf("relatorio-%s.xlsx", period)
	return buf.Bytes(), filename, nil
}

// UsageMetrics snapshots process-level request and cache metrics for the
// admin metrics panel.
func (s *AdminService) UsageMetrics(activeSessions int) *domain.UsageMetrics {
	return s.metrics.GetUsageSnapshot(activeSessions)
}
