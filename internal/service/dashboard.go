package service

import (
	"context"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentInvoiceCount = 5

// DashboardService assembles the dashboard page from independent backend
// calls, fanned out concurrently.
type DashboardService struct {
	dashboard    port.DashboardBackend
	invoices     port.InvoiceBackend
	subscription port.SubscriptionBackend
	summaries    port.Cache[*domain.DashboardSummary]
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(
	dashboard port.DashboardBackend,
	invoices port.InvoiceBackend,
	subscription port.SubscriptionBackend,
	summaries port.Cache[*domain.DashboardSummary],
	logger *zap.Logger,
	metrics *observability.Metrics,
) *DashboardService {
	return &DashboardService{
		dashboard:    dashboard,
		invoices:     invoices,
		subscription: subscription,
		summaries:    summaries,
		logger:       logger,
		metrics:      metrics,
	}
}

// Summary builds the dashboard for one month (YYYY-MM; empty means the
// current month). Totals and the category breakdown are required; recent
// invoices and usage degrade gracefully so a billing hiccup does not blank
// the whole page.
func (s *DashboardService) Summary(ctx context.Context, token, userID, month string) (*domain.DashboardSummary, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Summary")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard.summary", time.Since(start)) }()

	if month == "" {
		month = time.Now().Format("2006-01")
	}

	key := "dashboard:" + userID + ":" + month
	if cached, ok := s.summaries.Get(key); ok {
		s.metrics.IncrCacheHit("resources")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("resources")

	var (
		totals   *domain.DashboardTotals
		topSpend []domain.CategorySpend
		recent   *domain.InvoicePage
		usage    *domain.SubscriptionUsage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.dashboard.GetDashboardTotals(gctx, token, month)
		return err
	})
	g.Go(func() error {
		var err error
		topSpend, err = s.dashboard.GetCategorySpend(gctx, token, month)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.invoices.ListInvoices(gctx, token, 1, recentInvoiceCount)
		if err != nil {
			s.logger.Warn("dashboard: recent invoices unavailable", zap.Error(err))
			recent, err = nil, nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		usage, err = s.subscription.GetUsage(gctx, token)
		if err != nil {
			s.logger.Warn("dashboard: usage unavailable", zap.Error(err))
			usage, err = nil, nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.metrics.IncrBackendError("dashboard.summary")
		return nil, err
	}

	summary := &domain.DashboardSummary{
		Totals:   *totals,
		Usage:    usage,
		TopSpend: topSpend,
	}
	if recent != nil {
		for _, group := range recent.Groups {
			summary.Recent = append(summary.Recent, group.Invoices...)
			if len(summary.Recent) >= recentInvoiceCount {
				summary.Recent = summary.Recent[:recentInvoiceCount]
				break
			}
		}
	}

	s.summaries.Set(key, summary)
	return summary, nil
}
