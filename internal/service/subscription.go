package service

import (
	"context"
	"fmt"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/port"

	"go.uber.org/zap"
)

// SubscriptionService serves the billing page: plan, usage, payment history
// and the self-service portal.
type SubscriptionService struct {
	backend       port.SubscriptionBackend
	subscriptions port.Cache[*domain.Subscription]
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewSubscriptionService creates the subscription service.
func NewSubscriptionService(
	backend port.SubscriptionBackend,
	subscriptions port.Cache[*domain.Subscription],
	logger *zap.Logger,
	metrics *observability.Metrics,
) *SubscriptionService {
	return &SubscriptionService{
		backend:       backend,
		subscriptions: subscriptions,
		logger:        logger,
		metrics:       metrics,
	}
}

func subscriptionKey(userID string) string {
	return "subscription:" + userID
}

// Get returns the user's subscription, cache-served when fresh.
func (s *SubscriptionService) Get(ctx context.Context, token, userID string) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "subscription.Get")
	defer span.End()

	if cached, ok := s.subscriptions.Get(subscriptionKey(userID)); ok {
		s.metrics.IncrCacheHit("resources")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("resources")

	sub, err := s.backend.GetSubscription(ctx, token)
	if err != nil {
		s.metrics.IncrBackendError("subscription.get")
		return nil, err
	}
	s.subscriptions.Set(subscriptionKey(userID), sub)
	return sub, nil
}

// Usage returns the plan quota counters. Never cached: the upload screens
// gate on it.
func (s *SubscriptionService) Usage(ctx context.Context, token string) (*domain.SubscriptionUsage, error) {
	ctx, span := tracer.Start(ctx, "subscription.Usage")
	defer span.End()

	usage, err := s.backend.GetUsage(ctx, token)
	if err != nil {
		s.metrics.IncrBackendError("subscription.usage")
		return nil, err
	}
	return usage, nil
}

// Payments returns one page of the billing history.
func (s *SubscriptionService) Payments(ctx context.Context, token string, page, pageSize int) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "subscription.Payments")
	defer span.End()

	payments, err := s.backend.ListPayments(ctx, token, page, pageSize)
	if err != nil {
		s.metrics.IncrBackendError("subscription.payments")
		return nil, err
	}
	return payments, nil
}

// OpenPortal creates a billing portal session and returns its redirect URL.
func (s *SubscriptionService) OpenPortal(ctx context.Context, token string) (*domain.PortalSession, error) {
	ctx, span := tracer.Start(ctx, "subscription.OpenPortal")
	defer span.End()

	session, err := s.backend.CreatePortalSession(ctx, token)
	if err != nil {
		s.metrics.IncrBackendError("subscription.portal")
		return nil, err
	}
	return session, nil
}

// Cancel requests cancellation at period end and drops the cached
// subscription so the next read reflects the new state.
func (s *SubscriptionService) Cancel(ctx context.Context, token, userID string) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "subscription.Cancel")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("subscription.cancel", time.Since(start)) }()

	sub, err := s.backend.CancelSubscription(ctx, token)
	if err != nil {
		s.metrics.IncrBackendError("subscription.cancel")
		return nil, err
	}
	s.subscriptions.Delete(subscriptionKey(userID))
	s.logger.Info("subscription cancellation requested",
		zap.String("subscription_id", sub.ID),
		zap.String("status", sub.Status),
		zap.String("period_end", sub.CurrentPeriodEnd.Format(time.RFC3339)),
	)
	return sub, nil
}

// PlanSummary renders a one-line description for the settings header.
func PlanSummary(sub *domain.Subscription) string {
	label := sub.PlanName
	if label == "" {
		label = sub.PlanID
	}
	switch sub.Status {
	case domain.SubscriptionTrialing:
		return fmt.Sprintf("%s (período de teste até %s)", label, sub.CurrentPeriodEnd.Format("02/01/2006"))
	case domain.SubscriptionPastDue:
		return fmt.Sprintf("%s (pagamento pendente)", label)
	case domain.SubscriptionCanceled:
		return fmt.Sprintf("%s (cancelada)", label)
	}
	if sub.CancelAtPeriodEnd {
		return fmt.Sprintf("%s (cancela em %s)", label, sub.CurrentPeriodEnd.Format("02/01/2006"))
	}
	return label
}
