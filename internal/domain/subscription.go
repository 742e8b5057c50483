package domain

import "time"

// ============================================================
// Subscription & billing (backend-owned, rendered by the UI)
// ============================================================

// Subscription statuses as reported by the billing backend.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription is the user's current plan.
type Subscription struct {
	ID               string     `json:"id"`
	PlanID           string     `json:"plan_id"`
	PlanName         string     `json:"plan_name"`
	Status           string     `json:"status"`
	PriceMonthly     float64    `json:"price_monthly"`
	CurrentPeriodEnd time.Time  `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
}

// SubscriptionUsage tracks plan quota consumption for the period.
type SubscriptionUsage struct {
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	InvoicesUsed   int       `json:"invoices_used"`
	InvoicesQuota  int       `json:"invoices_quota"`
	PhotosUsed     int       `json:"photos_used"`
	PhotosQuota    int       `json:"photos_quota"`
}

// Payment is one billing history entry.
type Payment struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"` // paid, pending, failed, refunded
	Method    string    `json:"method,omitempty"`
	InvoiceURL string   `json:"invoice_url,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

// PortalSession is the redirect target for subscription self-management.
type PortalSession struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
