package domain

// ============================================================
// Dashboard
// ============================================================

// DashboardSummary aggregates the data the dashboard page renders.
// The three sections come from independent backend calls; the BFF
// fans them out concurrently and assembles one response.
type DashboardSummary struct {
	Totals   DashboardTotals   `json:"totals"`
	Recent   []Invoice         `json:"recent_invoices"`
	Usage    *SubscriptionUsage `json:"usage,omitempty"`
	TopSpend []CategorySpend   `json:"top_categories,omitempty"`
}

// DashboardTotals are the headline numbers for the current month.
type DashboardTotals struct {
	Month         string  `json:"month"` // YYYY-MM
	InvoiceCount  int     `json:"invoice_count"`
	TotalSpent    float64 `json:"total_spent"`
	AverageTicket float64 `json:"average_ticket"`
	PendingReview int     `json:"pending_review"`
}

// CategorySpend is one slice of the category breakdown chart.
type CategorySpend struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"` // 0..1 of the month total
}
