package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ListInvoices fetches one page of the grouped invoice list.
func (b *Backend) ListInvoices(ctx context.Context, token string, page, pageSize int) (*domain.InvoicePage, error) {
	var out domain.InvoicePage
	path := fmt.Sprintf("/api/invoices?page=%d&page_size=%d", page, pageSize)
	err := b.execute(ctx, "invoices.list", func() error {
		return b.doJSON(ctx, http.MethodGet, path, token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInvoice fetches one confirmed invoice.
func (b *Backend) GetInvoice(ctx context.Context, token, invoiceID string) (*domain.Invoice, error) {
	var out domain.Invoice
	err := b.execute(ctx, "invoices.get", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/invoices/"+url.PathEscape(invoiceID), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInvoice removes a confirmed invoice.
func (b *Backend) DeleteInvoice(ctx context.Context, token, invoiceID string) error {
	return b.execute(ctx, "invoices.delete", func() error {
		return b.doJSON(ctx, http.MethodDelete, "/api/invoices/"+url.PathEscape(invoiceID), token, nil, nil)
	})
}

// UploadXML submits a fiscal XML document for extraction.
func (b *Backend) UploadXML(ctx context.Context, token string, file domain.UploadFile) (*domain.UploadResponse, error) {
	return b.uploadMultipart(ctx, "invoices.upload_xml", "/api/invoices/upload/xml", token, []domain.UploadFile{file})
}

// UploadPhotoBatch submits up to a batch of receipt photos for extraction.
func (b *Backend) UploadPhotoBatch(ctx context.Context, token string, files []domain.UploadFile) (*domain.UploadResponse, error) {
	return b.uploadMultipart(ctx, "invoices.upload_photos", "/api/invoices/upload/photos", token, files)
}

// UploadQRCode submits an NFC-e QR code URL for server-side fetching.
func (b *Backend) UploadQRCode(ctx context.Context, token, qrURL string) (*domain.UploadResponse, error) {
	var out domain.UploadResponse
	in := map[string]string{"url": qrURL}
	err := b.execute(ctx, "invoices.upload_qrcode", func() error {
		return b.doJSON(ctx, http.MethodPost, "/api/invoices/upload/qrcode", token, in, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// uploadMultipart posts files as a multipart/form-data body. The body is
// rebuilt per attempt so retries never send a consumed reader.
func (b *Backend) uploadMultipart(ctx context.Context, endpoint, path, token string, files []domain.UploadFile) (*domain.UploadResponse, error) {
	var out domain.UploadResponse
	err := b.execute(ctx, endpoint, func() error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, f := range files {
			part, err := mw.CreateFormFile("files", f.Filename)
			if err != nil {
				return resilience.Permanent(err)
			}
			if _, err := part.Write(f.Data); err != nil {
				return resilience.Permanent(err)
			}
		}
		if err := mw.Close(); err != nil {
			return resilience.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, &buf)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			b.logger.Error("backend: upload failed", zap.String("path", path), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return json.NewDecoder(resp.Body).Decode(&out)
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return b.mapStatus(resp.StatusCode, path, raw)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// processingJobWire keeps the extraction payload raw so it can be schema
// validated before it is decoded into domain types.
type processingJobWire struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Kind      string          `json:"kind"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GetProcessingJob polls one extraction job. When the job carries extracted
// data, the payload is validated against the extraction schema before being
// handed to the review flow.
func (b *Backend) GetProcessingJob(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
	var wire processingJobWire
	err := b.execute(ctx, "processing.get", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/processing/"+url.PathEscape(processingID), token, nil, &wire)
	})
	if err != nil {
		return nil, err
	}

	job := &domain.ProcessingJob{
		ID:        wire.ID,
		Status:    wire.Status,
		Kind:      wire.Kind,
		Error:     wire.Error,
		CreatedAt: wire.CreatedAt,
		UpdatedAt: wire.UpdatedAt,
	}
	if len(wire.Data) > 0 {
		if err := validateExtractionPayload(wire.Data); err != nil {
			b.logger.Error("backend: invalid extraction payload",
				zap.String("processing_id", processingID),
				zap.Error(err),
			)
			return nil, &domain.ErrExternalService{Service: "backend/processing.get", Err: err}
		}
		var data domain.ExtractedInvoiceData
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return nil, &domain.ErrExternalService{Service: "backend/processing.get", Err: err}
		}
		job.Data = &data
	}
	return job, nil
}

// ConfirmInvoice submits the reviewed snapshot for persistence. Backend
// rejections surface as *domain.ErrInvalidCNPJ or *domain.ErrDuplicateInvoice.
func (b *Backend) ConfirmInvoice(ctx context.Context, token string, data *domain.ExtractedInvoiceData) (*domain.Invoice, error) {
	var out domain.Invoice
	err := b.execute(ctx, "invoices.confirm", func() error {
		return b.doJSON(ctx, http.MethodPost, "/api/invoices/confirm", token, data, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
