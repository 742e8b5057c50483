package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"

	"go.uber.org/zap"
)

func adminQuery(f domain.AdminListFilter) string {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	q.Set("page", fmt.Sprintf("%d", f.Page))
	q.Set("page_size", fmt.Sprintf("%d", f.PageSize))
	return "?" + q.Encode()
}

// ListUsers fetches the admin users table.
func (b *Backend) ListUsers(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminUser, error) {
	var out []domain.AdminUser
	err := b.execute(ctx, "admin.users.list", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/admin/users"+adminQuery(f), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser fetches one user for the admin detail view.
func (b *Backend) GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error) {
	var out domain.AdminUser
	err := b.execute(ctx, "admin.users.get", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/admin/users/"+url.PathEscape(userID), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial update (role, is_active, plan overrides).
func (b *Backend) UpdateUser(ctx context.Context, token, userID string, updates map[string]any) (*domain.AdminUser, error) {
	var out domain.AdminUser
	err := b.execute(ctx, "admin.users.update", func() error {
		return b.doJSON(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(userID), token, updates, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCoupons fetches the coupon table.
func (b *Backend) ListCoupons(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.Coupon, error) {
	var out []domain.Coupon
	err := b.execute(ctx, "admin.coupons.list", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/admin/coupons"+adminQuery(f), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCoupon creates a coupon.
func (b *Backend) CreateCoupon(ctx context.Context, token string, req *domain.CouponRequest) (*domain.Coupon, error) {
	var out domain.Coupon
	err := b.execute(ctx, "admin.coupons.create", func() error {
		return b.doJSON(ctx, http.MethodPost, "/api/admin/coupons", token, req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCoupon updates a coupon.
func (b *Backend) UpdateCoupon(ctx context.Context, token, couponID string, req *domain.CouponRequest) (*domain.Coupon, error) {
	var out domain.Coupon
	err := b.execute(ctx, "admin.coupons.update", func() error {
		return b.doJSON(ctx, http.MethodPut, "/api/admin/coupons/"+url.PathEscape(couponID), token, req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCoupon removes a coupon.
func (b *Backend) DeleteCoupon(ctx context.Context, token, couponID string) error {
	return b.execute(ctx, "admin.coupons.delete", func() error {
		return b.doJSON(ctx, http.MethodDelete, "/api/admin/coupons/"+url.PathEscape(couponID), token, nil, nil)
	})
}

// ListAdminPayments fetches the payments table across all users.
func (b *Backend) ListAdminPayments(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AdminPayment, error) {
	var out []domain.AdminPayment
	err := b.execute(ctx, "admin.payments.list", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/admin/payments"+adminQuery(f), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAuditLogs fetches the audit trail.
func (b *Backend) ListAuditLogs(ctx context.Context, token string, f domain.AdminListFilter) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	err := b.execute(ctx, "admin.audit.list", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/admin/audit-logs"+adminQuery(f), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetReport fetches aggregated report rows for a period (day or month).
func (b *Backend) GetReport(ctx context.Context, token, period string) ([]domain.AdminReport, error) {
	var out []domain.AdminReport
	path := "/api/admin/reports?period=" + url.QueryEscape(period)
	err := b.execute(ctx, "admin.reports", func() error {
		return b.doJSON(ctx, http.MethodGet, path, token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExportCSV streams a backend-generated CSV export for the given resource.
// The filename comes from Content-Disposition when present.
func (b *Backend) ExportCSV(ctx context.Context, token, resource string) (*domain.CSVExport, error) {
	var out *domain.CSVExport
	err := b.execute(ctx, "admin.export_csv", func() error {
		path := "/api/admin/export/" + url.PathEscape(resource)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			b.logger.Error("backend: csv export failed", zap.String("resource", resource), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			return b.mapStatus(resp.StatusCode, path, raw)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		filename := resource + ".csv"
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			if _, params, err := mime.ParseMediaType(cd); err == nil {
				if fn := params["filename"]; fn != "" {
					filename = fn
				}
			}
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/csv"
		}

		out = &domain.CSVExport{Filename: filename, ContentType: contentType, Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
