package domain

import "time"

// ============================================================
// Admin console resources
// ============================================================

// AdminUser is one row of the admin users table.
type AdminUser struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"` // user, admin
	IsActive     bool       `json:"is_active"`
	PlanName     string     `json:"plan_name,omitempty"`
	InvoiceCount int        `json:"invoice_count"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Coupon is a discount coupon managed in the admin console.
type Coupon struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	PercentOff  float64    `json:"percent_off,omitempty"`
	AmountOff   float64    `json:"amount_off,omitempty"`
	MaxUses     int        `json:"max_uses"`
	UsedCount   int        `json:"used_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CouponRequest is the create/update payload for coupons.
type CouponRequest struct {
	Code       string     `json:"code"`
	PercentOff float64    `json:"percent_off,omitempty"`
	AmountOff  float64    `json:"amount_off,omitempty"`
	MaxUses    int        `json:"max_uses"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"is_active"`
}

// AdminPayment is one row of the admin payments table.
type AdminPayment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Method    string    `json:"method,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

// AuditLog is one admin audit trail entry.
type AuditLog struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`   // see AuditActionLabels
	Resource  string    `json:"resource"` // see AuditResourceLabels
	TargetID  string    `json:"target_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminReport is an aggregated report row (per day or per plan).
type AdminReport struct {
	Period        string  `json:"period"` // YYYY-MM-DD or YYYY-MM
	NewUsers      int     `json:"new_users"`
	ActiveUsers   int     `json:"active_users"`
	InvoicesAdded int     `json:"invoices_added"`
	Revenue       float64 `json:"revenue"`
	ChurnedUsers  int     `json:"churned_users"`
}

// ============================================================
// Closed label tables
// ============================================================

// AuditActionLabels maps audit actions to display labels.
// The key set is closed; unknown actions fall back to the raw value.
var AuditActionLabels = map[string]string{
	"create":     "Criação",
	"update":     "Atualização",
	"delete":     "Exclusão",
	"block":      "Bloqueio",
	"unblock":    "Desbloqueio",
	"export":     "Exportação",
	"login":      "Login",
	"impersonate": "Impersonação",
}

// AuditResourceLabels maps audit resources to display labels.
var AuditResourceLabels = map[string]string{
	"user":         "Usuário",
	"coupon":       "Cupom",
	"payment":      "Pagamento",
	"invoice":      "Nota fiscal",
	"subscription": "Assinatura",
	"report":       "Relatório",
}

// AuditActionLabel resolves an action to its display label.
func AuditActionLabel(action string) string {
	if l, ok := AuditActionLabels[action]; ok {
		return l
	}
	return action
}

// AuditResourceLabel resolves a resource to its display label.
func AuditResourceLabel(resource string) string {
	if l, ok := AuditResourceLabels[resource]; ok {
		return l
	}
	return resource
}

// ============================================================
// Listing filters
// ============================================================

// AdminListFilter narrows admin list endpoints.
type AdminListFilter struct {
	Query    string
	Status   string
	Page     int
	PageSize int
}

// CSVExport is a file download passed through from the backend
// (blob body + Content-Disposition filename).
type CSVExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
