package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func testConfig() resilience.Config {
	return resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 10}
}

func newTestBackend(t *testing.T, h http.HandlerFunc) (*Backend, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	b := NewBackend(
		&http.Client{Timeout: 2 * time.Second},
		server.URL,
		resilience.NewCircuitBreaker(t.Name()),
		testConfig(),
		zap.NewNop(),
	)
	return b, server
}

func TestBackend_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(domain.Invoice{ID: "inv-1"})
	})

	if _, err := b.GetInvoice(context.Background(), "user-token", "inv-1"); err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if gotAuth != "Bearer user-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestBackend_MapsNotFound(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := b.GetInvoice(context.Background(), "tok", "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackend_MapsInvalidCNPJ(t *testing.T) {
	var calls int32
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid cnpj",
			"code":  "invalid_cnpj",
			"hint":  "verifique os dígitos verificadores",
		})
	})

	_, err := b.ConfirmInvoice(context.Background(), "tok", &domain.ExtractedInvoiceData{})
	var invalid *domain.ErrInvalidCNPJ
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidCNPJ, got %v", err)
	}
	if invalid.Hint != "verifique os dígitos verificadores" {
		t.Fatalf("hint = %q", invalid.Hint)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 (4xx must not be retried)", n)
	}
}

func TestBackend_MapsDuplicateInvoice(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "duplicate",
			"conflict": map[string]any{
				"number":      "1234",
				"issuer_name": "Mercado Central",
				"total_value": 41.0,
			},
		})
	})

	_, err := b.ConfirmInvoice(context.Background(), "tok", &domain.ExtractedInvoiceData{})
	var dup *domain.ErrDuplicateInvoice
	if !errors.As(err, &dup) {
		t.Fatalf("expected ErrDuplicateInvoice, got %v", err)
	}
	if dup.Conflict.Number != "1234" || dup.Conflict.IssuerName != "Mercado Central" {
		t.Fatalf("conflict = %+v", dup.Conflict)
	}
}

func TestBackend_RetriesServerErrors(t *testing.T) {
	var calls int32
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(domain.Invoice{ID: "inv-1"})
	})

	invoice, err := b.GetInvoice(context.Background(), "tok", "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice after retries: %v", err)
	}
	if invoice.ID != "inv-1" {
		t.Fatalf("invoice = %+v", invoice)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestBackend_WrapsPersistentServerErrors(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := b.GetInvoice(context.Background(), "tok", "inv-1")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestBackend_ProcessingJobSchemaValidation(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		// total_value is a string: violates the extraction schema.
		w.Write([]byte(`{
			"id": "proc-1",
			"status": "data_available",
			"kind": "xml",
			"data": {"items": [], "total_value": "41"}
		}`))
	})

	_, err := b.GetProcessingJob(context.Background(), "tok", "proc-1")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected schema rejection, got %v", err)
	}
}

func TestBackend_ProcessingJobDecodesValidPayload(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "proc-1",
			"status": "data_available",
			"kind": "xml",
			"data": {
				"issuer_name": "Mercado Central",
				"issuer_cnpj": "11.222.333/0001-81",
				"issue_date": "2026-08-01",
				"confidence": 0.92,
				"items": [
					{"description": "Arroz 5kg", "quantity": 1, "unit": "UN", "unit_price": 25, "total_price": 25, "category_name": "Alimentação"}
				],
				"total_value": 25
			}
		}`))
	})

	job, err := b.GetProcessingJob(context.Background(), "tok", "proc-1")
	if err != nil {
		t.Fatalf("GetProcessingJob: %v", err)
	}
	if !job.DataReady() {
		t.Fatal("expected data_available with payload")
	}
	if job.Data.Items[0].CategoryName != "Alimentação" {
		t.Fatalf("item = %+v", job.Data.Items[0])
	}
}

func TestBackend_ProcessingJobRejectsUnknownCategory(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "proc-1",
			"status": "data_available",
			"kind": "xml",
			"data": {
				"items": [
					{"description": "x", "quantity": 1, "unit_price": 1, "total_price": 1, "category_name": "Inexistente"}
				],
				"total_value": 1
			}
		}`))
	})

	_, err := b.GetProcessingJob(context.Background(), "tok", "proc-1")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected category enum rejection, got %v", err)
	}
}

func TestBackend_ExportCSVFilename(t *testing.T) {
	b, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="usuarios-2026-08.csv"`)
		w.Write([]byte("id,email\n1,a@example.com\n"))
	})

	export, err := b.ExportCSV(context.Background(), "tok", "users")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if export.Filename != "usuarios-2026-08.csv" {
		t.Fatalf("filename = %q", export.Filename)
	}
	if export.ContentType != "text/csv" {
		t.Fatalf("content type = %q", export.ContentType)
	}
}
