package service

import (
	"context"
	"errors"
	"testing"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/window"

	"go.uber.org/zap"
)

func samplePage() *domain.InvoicePage {
	return &domain.InvoicePage{
		Groups: []domain.InvoiceMonthGroup{
			{
				Month: "2026-08",
				Label: "agosto 2026",
				Total: 120,
				Invoices: []domain.Invoice{
					{ID: "inv-1", IssuerName: "Mercado Central", TotalValue: 80},
					{ID: "inv-2", IssuerName: "Padaria do Bairro", TotalValue: 40},
				},
			},
			{
				Month: "2026-07",
				Label: "julho 2026",
				Total: 55,
				Invoices: []domain.Invoice{
					{ID: "inv-3", IssuerName: "Farmácia Popular", TotalValue: 55},
				},
			},
		},
		Page:     1,
		PageSize: 20,
		Total:    3,
	}
}

func newTestInvoiceService(backend *mockInvoiceBackend) *InvoiceService {
	return NewInvoiceService(backend, newPageCache(), zap.NewNop(), observability.NewMetrics())
}

func TestInvoices_ListUsesCache(t *testing.T) {
	backend := &mockInvoiceBackend{
		listFn: func(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
			return samplePage(), nil
		},
	}
	svc := newTestInvoiceService(backend)
	ctx := context.Background()

	if _, err := svc.List(ctx, "tok", "user-1", 1, 20); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(ctx, "tok", "user-1", 1, 20); err != nil {
		t.Fatalf("List (cached): %v", err)
	}
	if backend.listCalls != 1 {
		t.Fatalf("backend calls = %d, want 1 (second read cache-served)", backend.listCalls)
	}

	// A different page misses.
	if _, err := svc.List(ctx, "tok", "user-1", 2, 20); err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if backend.listCalls != 2 {
		t.Fatalf("backend calls = %d, want 2", backend.listCalls)
	}
}

func TestInvoices_WindowPositionsItems(t *testing.T) {
	backend := &mockInvoiceBackend{
		listFn: func(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
			return samplePage(), nil
		},
	}
	svc := newTestInvoiceService(backend)

	vp, err := svc.Window(context.Background(), "tok", "user-1", WindowRequest{
		Page: 1, PageSize: 20, ScrollTop: 0, ViewportHeight: 400,
	})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	// 2 headers + 3 rows: 2*40 + 3*72 = 296.
	if vp.TotalHeight != 296 {
		t.Fatalf("total height = %d, want 296", vp.TotalHeight)
	}
	if len(vp.Items) != 5 {
		t.Fatalf("items = %d, want all 5 in a tall viewport", len(vp.Items))
	}
	if vp.Items[0].Item.Kind != window.KindHeader || vp.Items[0].Offset != 0 {
		t.Fatalf("first item should be the header at offset 0, got %+v", vp.Items[0])
	}
	if vp.Items[1].Offset != 40 {
		t.Fatalf("first row offset = %d, want 40", vp.Items[1].Offset)
	}
}

func TestInvoices_WindowEmptyList(t *testing.T) {
	backend := &mockInvoiceBackend{
		listFn: func(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
			return &domain.InvoicePage{Page: page, PageSize: pageSize}, nil
		},
	}
	svc := newTestInvoiceService(backend)

	vp, err := svc.Window(context.Background(), "tok", "user-1", WindowRequest{
		Page: 1, PageSize: 20, ScrollTop: 0, ViewportHeight: 400,
	})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if vp.TotalHeight != 0 || len(vp.Items) != 0 {
		t.Fatalf("empty list should render nothing, got %+v", vp)
	}
}

func TestInvoices_DeleteInvalidatesCache(t *testing.T) {
	backend := &mockInvoiceBackend{
		listFn: func(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
			return samplePage(), nil
		},
	}
	pages := newPageCache()
	svc := NewInvoiceService(backend, pages, zap.NewNop(), observability.NewMetrics())
	ctx := context.Background()

	if _, err := svc.List(ctx, "tok", "user-1", 1, 20); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := svc.Delete(ctx, "tok", "user-1", "inv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.List(ctx, "tok", "user-1", 1, 20); err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if backend.listCalls != 2 {
		t.Fatalf("backend calls = %d, want 2 (cache invalidated by delete)", backend.listCalls)
	}
}

func TestInvoices_UploadValidation(t *testing.T) {
	svc := newTestInvoiceService(&mockInvoiceBackend{})
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
	}{
		{"empty xml", func() error {
			_, err := svc.UploadXML(ctx, "tok", domain.UploadFile{Filename: "nota.xml"})
			return err
		}},
		{"wrong extension", func() error {
			_, err := svc.UploadXML(ctx, "tok", domain.UploadFile{Filename: "nota.pdf", Data: []byte("x")})
			return err
		}},
		{"no photos", func() error {
			_, err := svc.UploadPhotos(ctx, "tok", nil)
			return err
		}},
		{"too many photos", func() error {
			files := make([]domain.UploadFile, MaxPhotoBatch+1)
			for i := range files {
				files[i] = domain.UploadFile{Filename: "p.jpg", ContentType: "image/jpeg", Data: []byte("x")}
			}
			_, err := svc.UploadPhotos(ctx, "tok", files)
			return err
		}},
		{"non-image in batch", func() error {
			_, err := svc.UploadPhotos(ctx, "tok", []domain.UploadFile{
				{Filename: "p.txt", ContentType: "text/plain", Data: []byte("x")},
			})
			return err
		}},
		{"empty qr url", func() error {
			_, err := svc.UploadQRCode(ctx, "tok", "  ")
			return err
		}},
		{"bad qr scheme", func() error {
			_, err := svc.UploadQRCode(ctx, "tok", "ftp://sefaz.example/qr")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestInvoices_UploadAccepted(t *testing.T) {
	svc := newTestInvoiceService(&mockInvoiceBackend{})
	ctx := context.Background()

	resp, err := svc.UploadXML(ctx, "tok", domain.UploadFile{Filename: "nota.XML", Data: []byte("<nfe/>")})
	if err != nil {
		t.Fatalf("UploadXML: %v", err)
	}
	if resp.ProcessingID == "" {
		t.Fatal("expected a processing id")
	}

	resp, err = svc.UploadQRCode(ctx, "tok", "https://sefaz.example/qr?p=123")
	if err != nil {
		t.Fatalf("UploadQRCode: %v", err)
	}
	if resp.ProcessingID == "" {
		t.Fatal("expected a processing id")
	}
}
