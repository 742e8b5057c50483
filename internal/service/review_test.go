package service

import (
	"context"
	"errors"
	"testing"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/review"

	"go.uber.org/zap"
)

func readyJob(data domain.ExtractedInvoiceData) *domain.ProcessingJob {
	return &domain.ProcessingJob{
		ID:     "proc-1",
		Status: domain.ProcessingDataAvailable,
		Data:   &data,
	}
}

func sampleData() domain.ExtractedInvoiceData {
	return domain.ExtractedInvoiceData{
		IssuerName: "Mercado Central",
		IssuerCNPJ: "11.222.333/0001-81",
		Number:     "1234",
		IssueDate:  "2024-03-05",
		Items: []domain.LineItem{
			{Description: "Arroz 5kg", Quantity: 1, Unit: "UN", UnitPrice: 25, TotalPrice: 25},
			{Description: "Feijão 1kg", Quantity: 2, Unit: "UN", UnitPrice: 8, TotalPrice: 16},
		},
		TotalValue: 41,
	}
}

func newTestReviewService(backend *mockInvoiceBackend, enricher *mockEnrichment) *ReviewService {
	return NewReviewService(
		backend,
		enricher,
		newSessionCache(),
		newPageCache(),
		zap.NewNop(),
		observability.NewMetrics(),
	)
}

func TestReview_StartRequiresDataAvailable(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return &domain.ProcessingJob{ID: processingID, Status: domain.ProcessingInProgress}, nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})

	_, err := svc.Start(context.Background(), "tok", "user-1", "proc-1")
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict for unfinished extraction, got %v", err)
	}
}

func TestReview_StartAndEditLifecycle(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.Mismatch {
		t.Fatal("fresh snapshot should not be mismatched")
	}

	// Editing a unit price recomputes the item total but not the header.
	view, err = svc.EditItem(ctx, "user-1", view.ID, 0, review.FieldUnitPrice, "30")
	if err != nil {
		t.Fatalf("EditItem: %v", err)
	}
	if got := view.Data.Items[0].TotalPrice; got != 30 {
		t.Fatalf("item total = %v, want 30", got)
	}
	if got := view.Data.TotalValue; got != 41 {
		t.Fatalf("header total = %v, want 41 (untouched)", got)
	}
	if !view.Mismatch {
		t.Fatal("expected mismatch after price edit")
	}

	// Explicit reconciliation.
	view, err = svc.UseItemsSum(ctx, "user-1", view.ID)
	if err != nil {
		t.Fatalf("UseItemsSum: %v", err)
	}
	if got := view.Data.TotalValue; got != 46 {
		t.Fatalf("header total = %v, want 46", got)
	}
	if view.Mismatch {
		t.Fatal("mismatch should clear after reconciliation")
	}
}

func TestReview_SessionOwnership(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Get(ctx, "user-2", view.ID); err == nil {
		t.Fatal("expected not-found for another user's session")
	}
	if _, err := svc.Get(ctx, "user-1", view.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestReview_ConfirmBlockedNeverCallsBackend(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Introduce a blocking CNPJ error.
	view, err = svc.EditHeader(ctx, "user-1", view.ID, review.HeaderIssuerCNPJ, "12.345.678/0001-90")
	if err != nil {
		t.Fatalf("EditHeader: %v", err)
	}
	if len(view.BlockingErrors) == 0 {
		t.Fatal("expected a blocking error after invalid CNPJ")
	}

	_, err = svc.Confirm(ctx, "tok", "user-1", view.ID)
	var blocked *domain.ErrReviewBlocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrReviewBlocked, got %v", err)
	}
	if backend.confirmCalls != 0 {
		t.Fatalf("confirm reached the backend %d times despite blocking errors", backend.confirmCalls)
	}

	// The session and its edits survive the aborted confirm.
	view, err = svc.Get(ctx, "user-1", view.ID)
	if err != nil {
		t.Fatalf("session lost after blocked confirm: %v", err)
	}
	if view.Data.IssuerCNPJ != "12.345.678/0001-90" {
		t.Fatalf("edits lost: %q", view.Data.IssuerCNPJ)
	}
}

// An invalid CNPJ straight from extraction, never touched by the user, must
// block confirmation just like one the user typed.
func TestReview_ConfirmBlockedOnUneditedExtractionErrors(t *testing.T) {
	data := sampleData()
	data.IssuerCNPJ = "12.345.678/0001-90" // bad check digits
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(data), nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(view.BlockingErrors) == 0 {
		t.Fatal("expected a blocking error seeded from the extraction payload")
	}
	if view.FieldErrors[review.HeaderIssuerCNPJ] == "" {
		t.Fatal("expected an issuer_cnpj field error from the start")
	}

	_, err = svc.Confirm(ctx, "tok", "user-1", view.ID)
	var blocked *domain.ErrReviewBlocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrReviewBlocked, got %v", err)
	}
	if backend.confirmCalls != 0 {
		t.Fatalf("confirm reached the backend %d times without any user edit", backend.confirmCalls)
	}

	// Fixing the CNPJ unblocks the confirm.
	if _, err := svc.EditHeader(ctx, "user-1", view.ID, review.HeaderIssuerCNPJ, "11.222.333/0001-81"); err != nil {
		t.Fatalf("EditHeader: %v", err)
	}
	if _, err := svc.Confirm(ctx, "tok", "user-1", view.ID); err != nil {
		t.Fatalf("Confirm after fix: %v", err)
	}
	if backend.confirmCalls != 1 {
		t.Fatalf("confirm calls = %d, want 1", backend.confirmCalls)
	}
}

func TestReview_ConfirmSuccessDiscardsSessionAndCache(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	sessions := newSessionCache()
	pages := newPageCache()
	pages.Set("invoices:user-1:page:1:20", &domain.InvoicePage{Page: 1})
	pages.Set("invoices:user-2:page:1:20", &domain.InvoicePage{Page: 1})

	svc := NewReviewService(backend, &mockEnrichment{}, sessions, pages, zap.NewNop(), observability.NewMetrics())
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	invoice, err := svc.Confirm(ctx, "tok", "user-1", view.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if invoice.ID == "" {
		t.Fatal("expected the confirmed invoice")
	}
	if _, err := svc.Get(ctx, "user-1", view.ID); err == nil {
		t.Fatal("session should be discarded after confirmation")
	}
	if _, ok := pages.Get("invoices:user-1:page:1:20"); ok {
		t.Fatal("owner's cached pages should be invalidated")
	}
	if _, ok := pages.Get("invoices:user-2:page:1:20"); !ok {
		t.Fatal("other users' cached pages must survive")
	}
}

func TestReview_ConfirmRejectionKeepsSession(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
		confirmFn: func(ctx context.Context, token string, data *domain.ExtractedInvoiceData) (*domain.Invoice, error) {
			return nil, &domain.ErrInvalidCNPJ{Hint: "verifique os dígitos"}
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = svc.Confirm(ctx, "tok", "user-1", view.ID)
	var invalid *domain.ErrInvalidCNPJ
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidCNPJ, got %v", err)
	}
	if backend.confirmCalls != 1 {
		t.Fatalf("confirm calls = %d, want exactly 1 (no automatic retry)", backend.confirmCalls)
	}

	view, err = svc.Get(ctx, "user-1", view.ID)
	if err != nil {
		t.Fatalf("session lost after rejected confirm: %v", err)
	}
	if view.FieldErrors[review.HeaderIssuerCNPJ] == "" {
		t.Fatal("backend rejection should surface as a field error")
	}
}

func TestReview_EnrichIssuerRequiresValidCNPJ(t *testing.T) {
	data := sampleData()
	data.IssuerCNPJ = "12.345.678/0001-90" // bad check digit
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(data), nil
		},
	}
	enricher := &mockEnrichment{}
	svc := newTestReviewService(backend, enricher)
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = svc.EnrichIssuer(ctx, "tok", "user-1", view.ID)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if enricher.lookupCalls != 0 {
		t.Fatal("lookup must not run with an invalid CNPJ")
	}
}

func TestReview_EnrichIssuerOverwritesName(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	enricher := &mockEnrichment{
		lookupFn: func(ctx context.Context, token, cnpjDigits string) (*domain.CNPJEnrichment, error) {
			if cnpjDigits != "11222333000181" {
				t.Fatalf("lookup received %q, want bare digits", cnpjDigits)
			}
			return &domain.CNPJEnrichment{CNPJ: cnpjDigits, LegalName: "Mercado Central LTDA"}, nil
		},
	}
	svc := newTestReviewService(backend, enricher)
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	view, err = svc.EnrichIssuer(ctx, "tok", "user-1", view.ID)
	if err != nil {
		t.Fatalf("EnrichIssuer: %v", err)
	}
	if view.Data.IssuerName != "Mercado Central LTDA" {
		t.Fatalf("issuer name = %q", view.Data.IssuerName)
	}
	if view.Data.IssuerCNPJ != "11.222.333/0001-81" {
		t.Fatal("enrichment must not touch the CNPJ")
	}
}

func TestReview_Abandon(t *testing.T) {
	backend := &mockInvoiceBackend{
		jobFn: func(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
			return readyJob(sampleData()), nil
		},
	}
	svc := newTestReviewService(backend, &mockEnrichment{})
	ctx := context.Background()

	view, err := svc.Start(ctx, "tok", "user-1", "proc-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Abandon(ctx, "user-1", view.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", view.ID); err == nil {
		t.Fatal("session should be gone after abandon")
	}
}
