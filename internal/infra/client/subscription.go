package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
)

// GetDashboardTotals fetches the headline numbers for one month (YYYY-MM).
func (b *Backend) GetDashboardTotals(ctx context.Context, token, month string) (*domain.DashboardTotals, error) {
	var out domain.DashboardTotals
	path := "/api/dashboard/totals?month=" + url.QueryEscape(month)
	err := b.execute(ctx, "dashboard.totals", func() error {
		return b.doJSON(ctx, http.MethodGet, path, token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCategorySpend fetches per-category spend for one month (YYYY-MM).
func (b *Backend) GetCategorySpend(ctx context.Context, token, month string) ([]domain.CategorySpend, error) {
	var out []domain.CategorySpend
	path := "/api/dashboard/categories?month=" + url.QueryEscape(month)
	err := b.execute(ctx, "dashboard.categories", func() error {
		return b.doJSON(ctx, http.MethodGet, path, token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSubscription fetches the caller's subscription.
func (b *Backend) GetSubscription(ctx context.Context, token string) (*domain.Subscription, error) {
	var out domain.Subscription
	err := b.execute(ctx, "subscription.get", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/subscription", token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUsage fetches the caller's plan usage counters.
func (b *Backend) GetUsage(ctx context.Context, token string) (*domain.SubscriptionUsage, error) {
	var out domain.SubscriptionUsage
	err := b.execute(ctx, "subscription.usage", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/subscription/usage", token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPayments fetches one page of the caller's payment history.
func (b *Backend) ListPayments(ctx context.Context, token string, page, pageSize int) ([]domain.Payment, error) {
	var out []domain.Payment
	path := fmt.Sprintf("/api/subscription/payments?page=%d&page_size=%d", page, pageSize)
	err := b.execute(ctx, "subscription.payments", func() error {
		return b.doJSON(ctx, http.MethodGet, path, token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePortalSession opens a billing portal session for plan management.
func (b *Backend) CreatePortalSession(ctx context.Context, token string) (*domain.PortalSession, error) {
	var out domain.PortalSession
	err := b.execute(ctx, "subscription.portal", func() error {
		return b.doJSON(ctx, http.MethodPost, "/api/subscription/portal", token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription cancels at the end of the current period.
func (b *Backend) CancelSubscription(ctx context.Context, token string) (*domain.Subscription, error) {
	var out domain.Subscription
	err := b.execute(ctx, "subscription.cancel", func() error {
		return b.doJSON(ctx, http.MethodPost, "/api/subscription/cancel", token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
