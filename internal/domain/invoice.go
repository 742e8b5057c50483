// Package domain defines the core business entities for the Nota Insight BFF.
// These models are independent of the backend API and represent the canonical
// data structures used throughout the web tier.
package domain

import "time"

// ============================================================
// Extracted invoice data (review snapshot)
// ============================================================

// ExtractedInvoiceData is the transient invoice produced by the backend's
// OCR/extraction pipeline. It is edited in a review session before being
// confirmed; once confirmed the server record supersedes it.
type ExtractedInvoiceData struct {
	IssuerName string `json:"issuer_name"`
	IssuerCNPJ string `json:"issuer_cnpj"`
	Number     string `json:"number"`
	Series     string `json:"series"`
	AccessKey  string `json:"access_key"` // 44-digit fiscal key (NFC-e/NF-e)
	IssueDate  string `json:"issue_date"` // YYYY-MM-DD
	Confidence float64 `json:"confidence"` // extraction confidence, 0..1

	Items      []LineItem `json:"items"`
	TotalValue float64    `json:"total_value"`

	PotentialDuplicates []PotentialDuplicate `json:"potential_duplicates,omitempty"`
}

// LineItem is a single extracted invoice line.
type LineItem struct {
	Description    string  `json:"description"`
	NormalizedName string  `json:"normalized_name,omitempty"` // cleaned description, falls back to raw
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	CategoryName   string  `json:"category_name,omitempty"`
	Subcategory    string  `json:"subcategory,omitempty"` // valid only relative to category
}

// PotentialDuplicate is a server-suggested match for an invoice under review.
type PotentialDuplicate struct {
	Number     string  `json:"number,omitempty"`
	IssueDate  string  `json:"issue_date,omitempty"`
	TotalValue float64 `json:"total_value,omitempty"`
	IssuerName string  `json:"issuer_name,omitempty"`
}

// ItemsSum returns the running sum of all line item totals.
func (e *ExtractedInvoiceData) ItemsSum() float64 {
	var sum float64
	for _, it := range e.Items {
		sum += it.TotalPrice
	}
	return sum
}

// ============================================================
// Processing jobs
// ============================================================

// Processing job statuses as reported by the backend.
const (
	ProcessingQueued        = "queued"
	ProcessingInProgress    = "processing"
	ProcessingDataAvailable = "data_available"
	ProcessingFailed        = "failed"
)

// ProcessingJob tracks an in-progress invoice extraction, polled by the UI
// until its status reaches data_available (or failed).
type ProcessingJob struct {
	ID        string                `json:"id"`
	Status    string                `json:"status"`
	Kind      string                `json:"kind"` // xml, photo, qrcode
	Error     string                `json:"error,omitempty"`
	Data      *ExtractedInvoiceData `json:"data,omitempty"` // set when data_available
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// DataReady reports whether extracted data can be reviewed.
func (j *ProcessingJob) DataReady() bool {
	return j.Status == ProcessingDataAvailable && j.Data != nil
}

// ============================================================
// Server-owned invoices (listing)
// ============================================================

// Invoice is the server-owned record after confirmation.
type Invoice struct {
	ID         string    `json:"id"`
	IssuerName string    `json:"issuer_name"`
	IssuerCNPJ string    `json:"issuer_cnpj"`
	Number     string    `json:"number"`
	Series     string    `json:"series,omitempty"`
	AccessKey  string    `json:"access_key,omitempty"`
	IssueDate  string    `json:"issue_date"`
	TotalValue float64   `json:"total_value"`
	ItemCount  int       `json:"item_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// InvoiceMonthGroup is one month of invoices for the grouped list
// (month separators + invoice rows in the UI).
type InvoiceMonthGroup struct {
	Month    string    `json:"month"` // YYYY-MM
	Label    string    `json:"label"` // e.g. "março 2026"
	Total    float64   `json:"total"`
	Invoices []Invoice `json:"invoices"`
}

// InvoicePage is a paginated slice of the invoice list.
type InvoicePage struct {
	Groups   []InvoiceMonthGroup `json:"groups"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Total    int                 `json:"total"`
}

// ============================================================
// Uploads
// ============================================================

// UploadKind values accepted by the upload endpoints.
const (
	UploadXML    = "xml"
	UploadPhoto  = "photo"
	UploadQRCode = "qrcode"
)

// UploadFile is one file of an upload request (XML or photo batch).
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResponse is returned when an upload is accepted for processing.
type UploadResponse struct {
	ProcessingID string `json:"processing_id"`
	Status       string `json:"status"`
}

// CNPJEnrichment is the legal-entity lookup result used to fill issuer data.
type CNPJEnrichment struct {
	CNPJ      string `json:"cnpj"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`
	Hint      string `json:"hint,omitempty"`
}
