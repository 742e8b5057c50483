package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/port"
	"github.com/notainsight/nota-insight-bff-go/internal/window"

	"go.uber.org/zap"
)

// Upload limits enforced before anything reaches the backend.
const (
	MaxUploadSize  = 10 << 20 // per file
	MaxPhotoBatch  = 5
	xmlContentType = "text/xml"
)

// InvoiceService serves the invoice list (grouped and windowed), uploads
// and extraction-job polling.
type InvoiceService struct {
	backend port.InvoiceBackend
	pages   port.Cache[*domain.InvoicePage]
	layout  window.Layout
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewInvoiceService creates the invoice service.
func NewInvoiceService(
	backend port.InvoiceBackend,
	pages port.Cache[*domain.InvoicePage],
	logger *zap.Logger,
	metrics *observability.Metrics,
) *InvoiceService {
	return &InvoiceService{
		backend: backend,
		pages:   pages,
		layout:  window.DefaultLayout(),
		logger:  logger,
		metrics: metrics,
	}
}

func pageKey(userID string, page, pageSize int) string {
	return fmt.Sprintf("invoices:%s:page:%d:%d", userID, page, pageSize)
}

// List returns one page of the month-grouped invoice list, served from
// cache when fresh.
func (s *InvoiceService) List(ctx context.Context, token, userID string, page, pageSize int) (*domain.InvoicePage, error) {
	ctx, span := tracer.Start(ctx, "invoices.List")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("invoices.list", time.Since(start)) }()

	key := pageKey(userID, page, pageSize)
	if cached, ok := s.pages.Get(key); ok {
		s.metrics.IncrCacheHit("resources")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("resources")

	result, err := s.backend.ListInvoices(ctx, token, page, pageSize)
	if err != nil {
		s.metrics.IncrBackendError("invoices.list")
		return nil, err
	}
	s.pages.Set(key, result)
	return result, nil
}

// WindowRequest describes the viewport the list screen is rendering.
type WindowRequest struct {
	Page           int
	PageSize       int
	ScrollTop      int
	ViewportHeight int
}

// Window returns the positioned slice of the virtualized list for the given
// scroll state. The underlying page is fetched (or cache-served) via List,
// so the window computation itself adds no backend traffic.
func (s *InvoiceService) Window(ctx context.Context, token, userID string, req WindowRequest) (*window.Viewport, error) {
	ctx, span := tracer.Start(ctx, "invoices.Window")
	defer span.End()

	page, err := s.List(ctx, token, userID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	vp := s.layout.Visible(window.Flatten(page.Groups), req.ScrollTop, req.ViewportHeight)
	return &vp, nil
}

// Get returns one confirmed invoice.
func (s *InvoiceService) Get(ctx context.Context, token, userID, invoiceID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoices.Get")
	defer span.End()

	invoice, err := s.backend.GetInvoice(ctx, token, invoiceID)
	if err != nil {
		s.metrics.IncrBackendError("invoices.get")
		return nil, err
	}
	return invoice, nil
}

// Delete removes a confirmed invoice and invalidates the user's cached pages.
func (s *InvoiceService) Delete(ctx context.Context, token, userID, invoiceID string) error {
	ctx, span := tracer.Start(ctx, "invoices.Delete")
	defer span.End()

	if err := s.backend.DeleteInvoice(ctx, token, invoiceID); err != nil {
		s.metrics.IncrBackendError("invoices.delete")
		return err
	}
	s.pages.DeletePrefix("invoices:" + userID)
	s.logger.Info("invoice deleted", zap.String("invoice_id", invoiceID))
	return nil
}

// UploadXML validates and forwards a fiscal XML document.
func (s *InvoiceService) UploadXML(ctx context.Context, token string, file domain.UploadFile) (*domain.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "invoices.UploadXML")
	defer span.End()

	if len(file.Data) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo vazio"}
	}
	if len(file.Data) > MaxUploadSize {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo excede o limite de 10MB"}
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xml") {
		return nil, &domain.ErrValidation{Field: "file", Message: "esperado um arquivo .xml"}
	}
	if file.ContentType == "" {
		file.ContentType = xmlContentType
	}

	resp, err := s.backend.UploadXML(ctx, token, file)
	if err != nil {
		s.metrics.IncrBackendError("invoices.upload_xml")
		return nil, err
	}
	s.logger.Info("xml accepted for processing", zap.String("processing_id", resp.ProcessingID))
	return resp, nil
}

// UploadPhotos validates and forwards a batch of receipt photos.
func (s *InvoiceService) UploadPhotos(ctx context.Context, token string, files []domain.UploadFile) (*domain.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "invoices.UploadPhotos")
	defer span.End()

	if len(files) == 0 {
		return nil, &domain.ErrValidation{Field: "files", Message: "nenhuma foto enviada"}
	}
	if len(files) > MaxPhotoBatch {
		return nil, &domain.ErrValidation{Field: "files", Message: fmt.Sprintf("máximo de %d fotos por envio", MaxPhotoBatch)}
	}
	for _, f := range files {
		if len(f.Data) == 0 {
			return nil, &domain.ErrValidation{Field: "files", Message: "arquivo vazio: " + f.Filename}
		}
		if len(f.Data) > MaxUploadSize {
			return nil, &domain.ErrValidation{Field: "files", Message: "arquivo excede o limite de 10MB: " + f.Filename}
		}
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, &domain.ErrValidation{Field: "files", Message: "esperada uma imagem: " + f.Filename}
		}
	}

	resp, err := s.backend.UploadPhotoBatch(ctx, token, files)
	if err != nil {
		s.metrics.IncrBackendError("invoices.upload_photos")
		return nil, err
	}
	s.logger.Info("photo batch accepted for processing",
		zap.String("processing_id", resp.ProcessingID),
		zap.Int("count", len(files)),
	)
	return resp, nil
}

// UploadQRCode validates and forwards an NFC-e QR code URL.
func (s *InvoiceService) UploadQRCode(ctx context.Context, token, qrURL string) (*domain.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "invoices.UploadQRCode")
	defer span.End()

	qrURL = strings.TrimSpace(qrURL)
	if qrURL == "" {
		return nil, &domain.ErrValidation{Field: "url", Message: "URL do QR code obrigatória"}
	}
	if !strings.HasPrefix(qrURL, "http://") && !strings.HasPrefix(qrURL, "https://") {
		return nil, &domain.ErrValidation{Field: "url", Message: "URL do QR code inválida"}
	}

	resp, err := s.backend.UploadQRCode(ctx, token, qrURL)
	if err != nil {
		s.metrics.IncrBackendError("invoices.upload_qrcode")
		return nil, err
	}
	return resp, nil
}

// JobStatus polls one extraction job. Jobs are never cached: the UI polls
// until data_available or failed.
func (s *InvoiceService) JobStatus(ctx context.Context, token, processingID string) (*domain.ProcessingJob, error) {
	ctx, span := tracer.Start(ctx, "invoices.JobStatus")
	defer span.End()

	job, err := s.backend.GetProcessingJob(ctx, token, processingID)
	if err != nil {
		s.metrics.IncrBackendError("processing.get")
		return nil, err
	}
	return job, nil
}
