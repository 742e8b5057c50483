// Package client wraps HTTP calls to the invoice-analysis backend API.
// It is the only wire boundary of the BFF: a single configurable base URL,
// the end user's bearer token attached to every call, and backend error
// contracts mapped to typed domain errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// Backend is the HTTP client for the invoice-analysis backend API.
type Backend struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewBackend creates a backend API client.
func NewBackend(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Backend {
	return &Backend{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// apiError is the backend's error envelope.
type apiError struct {
	Error    string                     `json:"error"`
	Code     string                     `json:"code,omitempty"`
	Hint     string                     `json:"hint,omitempty"`
	Conflict *domain.PotentialDuplicate `json:"conflict,omitempty"`
}

// execute runs fn behind the circuit breaker and retry policy, then
// normalizes the failure: typed domain errors pass through untouched so
// handlers can map them; anything else becomes ErrExternalService.
func (b *Backend) execute(ctx context.Context, endpoint string, fn func() error) error {
	ctx, span := tracer.Start(ctx, "backend."+endpoint)
	defer span.End()

	_, err := b.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, b.cfg, fn)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "backend/" + endpoint}
	}
	if isDomainError(err) {
		return err
	}
	return &domain.ErrExternalService{Service: "backend/" + endpoint, Err: err}
}

func isDomainError(err error) bool {
	var (
		notFound    *domain.ErrNotFound
		invalidCNPJ *domain.ErrInvalidCNPJ
		duplicate   *domain.ErrDuplicateInvoice
		unauth      *domain.ErrUnauthorized
		forbidden   *domain.ErrForbidden
		payment     *domain.ErrPaymentRequired
		validation  *domain.ErrValidation
		conflict    *domain.ErrConflict
	)
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &invalidCNPJ),
		errors.As(err, &duplicate),
		errors.As(err, &unauth),
		errors.As(err, &forbidden),
		errors.As(err, &payment),
		errors.As(err, &validation),
		errors.As(err, &conflict):
		return true
	}
	return false
}

// doJSON issues a JSON request and decodes the 2xx response into out
// (out may be nil). Non-2xx responses map to typed errors; statuses that
// cannot succeed on retry are marked permanent.
func (b *Backend) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return resilience.Permanent(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return resilience.Permanent(err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.Error("backend: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	b.logger.Warn("backend: non-2xx response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(raw)),
	)
	return b.mapStatus(resp.StatusCode, path, raw)
}

// mapStatus converts a backend error response to a typed domain error.
// 5xx stays retryable; everything else is permanent.
func (b *Backend) mapStatus(status int, path string, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)

	switch status {
	case http.StatusNotFound:
		return resilience.Permanent(&domain.ErrNotFound{Resource: "backend resource", ID: path})
	case http.StatusUnauthorized:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: ae.Error})
	case http.StatusForbidden:
		return resilience.Permanent(&domain.ErrForbidden{Action: path})
	case http.StatusPaymentRequired:
		return resilience.Permanent(&domain.ErrPaymentRequired{Feature: path})
	case http.StatusConflict:
		dup := &domain.ErrDuplicateInvoice{}
		if ae.Conflict != nil {
			dup.Conflict = *ae.Conflict
		}
		return resilience.Permanent(dup)
	case http.StatusBadRequest:
		if ae.Code == "invalid_cnpj" {
			return resilience.Permanent(&domain.ErrInvalidCNPJ{Hint: ae.Hint})
		}
		return resilience.Permanent(&domain.ErrValidation{Field: ae.Code, Message: ae.Error})
	}
	if status >= 500 {
		return fmt.Errorf("backend returned status %d: %s", status, string(raw))
	}
	return resilience.Permanent(fmt.Errorf("backend returned status %d: %s", status, string(raw)))
}
