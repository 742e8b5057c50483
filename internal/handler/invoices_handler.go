package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Invoice Handlers
// ============================================================

const maxUploadMemory = 12 << 20

func listInvoicesHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /invoices")
		defer span.End()

		page, pageSize := parsePagination(r)
		result, err := svc.List(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func invoiceWindowHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /invoices/window")
		defer span.End()

		page, pageSize := parsePagination(r)
		vp, err := svc.Window(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), service.WindowRequest{
			Page:           page,
			PageSize:       pageSize,
			ScrollTop:      queryInt(r, "scroll_top", 0),
			ViewportHeight: queryInt(r, "viewport_height", 800),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vp)
	}
}

func getInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /invoices/{invoiceId}")
		defer span.End()

		invoice, err := svc.Get(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), chi.URLParam(r, "invoiceId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	}
}

func deleteInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /invoices/{invoiceId}")
		defer span.End()

		if err := svc.Delete(ctx, TokenFromContext(ctx), UserIDFromContext(ctx), chi.URLParam(r, "invoiceId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func uploadXMLHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /invoices/upload/xml")
		defer span.End()

		files, err := readUploadedFiles(r, 1)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp, err := svc.UploadXML(ctx, TokenFromContext(ctx), files[0])
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func uploadPhotosHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /invoices/upload/photos")
		defer span.End()

		files, err := readUploadedFiles(r, service.MaxPhotoBatch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp, err := svc.UploadPhotos(ctx, TokenFromContext(ctx), files)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func uploadQRCodeHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /invoices/upload/qrcode")
		defer span.End()

		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
			return
		}
		resp, err := svc.UploadQRCode(ctx, TokenFromContext(ctx), req.URL)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func processingStatusHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /processing/{processingId}")
		defer span.End()

		job, err := svc.JobStatus(ctx, TokenFromContext(ctx), chi.URLParam(r, "processingId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// readUploadedFiles collects multipart "files" parts up to max.
func readUploadedFiles(r *http.Request, max int) ([]domain.UploadFile, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, &domain.ErrValidation{Field: "files", Message: "envio multipart inválido"}
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, &domain.ErrValidation{Field: "files", Message: "nenhum arquivo enviado"}
	}
	if len(headers) > max {
		return nil, &domain.ErrValidation{Field: "files", Message: "arquivos demais no envio"}
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "files", Message: "não foi possível ler " + h.Filename}
		}
		data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadSize+1))
		f.Close()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "files", Message: "não foi possível ler " + h.Filename}
		}
		files = append(files, domain.UploadFile{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
