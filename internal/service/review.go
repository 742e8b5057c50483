// Package service implements the application services sitting between the
// HTTP handlers and the backend API client.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/port"
	"github.com/notainsight/nota-insight-bff-go/internal/review"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// Session is one open review screen: the editable snapshot of an extracted
// invoice between data_available and confirmation. Sessions are ephemeral
// and expire with their cache TTL; closing the review screen loses edits.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	ProcessingID string    `json:"processing_id"`
	State        review.State `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionView is the wire shape of a session, with the derived flags the
// review screen renders (mismatch banner, items sum, blocking errors).
type SessionView struct {
	ID             string                      `json:"id"`
	ProcessingID   string                      `json:"processing_id"`
	Data           domain.ExtractedInvoiceData `json:"data"`
	FieldErrors    map[string]string           `json:"field_errors,omitempty"`
	ItemsSum       float64                     `json:"items_sum"`
	Mismatch       bool                        `json:"mismatch"`
	BlockingErrors []string                    `json:"blocking_errors,omitempty"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// View derives the wire shape from the session.
func (s *Session) View() *SessionView {
	return &SessionView{
		ID:             s.ID,
		ProcessingID:   s.ProcessingID,
		Data:           s.State.Data,
		FieldErrors:    s.State.FieldErrors,
		ItemsSum:       s.State.Data.ItemsSum(),
		Mismatch:       s.State.Mismatch(),
		BlockingErrors: s.State.BlockingErrors(),
		UpdatedAt:      s.UpdatedAt,
	}
}

// ReviewService owns review sessions and the confirmation flow.
type ReviewService struct {
	backend  port.InvoiceBackend
	enricher port.EnrichmentLookup
	sessions port.Cache[*Session]
	invoices port.Cache[*domain.InvoicePage]
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu sync.Mutex // serializes read-modify-write on sessions
}

// NewReviewService creates the review service.
func NewReviewService(
	backend port.InvoiceBackend,
	enricher port.EnrichmentLookup,
	sessions port.Cache[*Session],
	invoices port.Cache[*domain.InvoicePage],
	logger *zap.Logger,
	metrics *observability.Metrics,
) *ReviewService {
	return &ReviewService{
		backend:  backend,
		enricher: enricher,
		sessions: sessions,
		invoices: invoices,
		logger:   logger,
		metrics:  metrics,
	}
}

func sessionKey(userID, sessionID string) string {
	return "review:" + userID + ":" + sessionID
}

// Start opens a review session from a finished extraction job. The job must
// be data_available; anything else is a conflict the UI retries later.
func (s *ReviewService) Start(ctx context.Context, token, userID, processingID string) (*SessionView, error) {
	ctx, span := tracer.Start(ctx, "review.Start")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("review.start", time.Since(start)) }()

	job, err := s.backend.GetProcessingJob(ctx, token, processingID)
	if err != nil {
		s.metrics.IncrBackendError("processing.get")
		return nil, err
	}
	if job.Status == domain.ProcessingFailed {
		return nil, &domain.ErrConflict{Message: "extraction failed: " + job.Error}
	}
	if !job.DataReady() {
		return nil, &domain.ErrConflict{Message: "extraction not finished"}
	}

	session := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		ProcessingID: processingID,
		State:        review.NewState(*job.Data),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	s.mu.Lock()
	s.sessions.Set(sessionKey(userID, session.ID), session)
	s.metrics.SetReviewSessions(s.sessions.Len())
	s.mu.Unlock()

	s.logger.Info("review session started",
		zap.String("session_id", session.ID),
		zap.String("processing_id", processingID),
		zap.Int("items", len(session.State.Data.Items)),
	)
	return session.View(), nil
}

// Get returns the current session state.
func (s *ReviewService) Get(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.Get")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.View(), nil
}

// lookup fetches an owned session. Callers must hold s.mu.
func (s *ReviewService) lookup(userID, sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionKey(userID, sessionID))
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "review session", ID: sessionID}
	}
	return session, nil
}

// transition applies fn to the session state and persists the result.
func (s *ReviewService) transition(userID, sessionID string, fn func(review.State) review.State) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	session.State = fn(session.State)
	session.UpdatedAt = time.Now()
	s.sessions.Set(sessionKey(userID, sessionID), session)
	return session.View(), nil
}

// EditItem edits one line item field.
func (s *ReviewService) EditItem(ctx context.Context, userID, sessionID string, index int, field, value string) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.EditItem")
	defer span.End()
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.EditLineItem(index, field, value)
	})
}

// AddItem appends an empty line item.
func (s *ReviewService) AddItem(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.AddItem")
	defer span.End()
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.AddLineItem()
	})
}

// RemoveItem removes the line item at index.
func (s *ReviewService) RemoveItem(ctx context.Context, userID, sessionID string, index int) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.RemoveItem")
	defer span.End()
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.RemoveLineItem(index)
	})
}

// UseItemsSum applies the explicit mismatch reconciliation.
func (s *ReviewService) UseItemsSum(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.UseItemsSum")
	defer span.End()
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.UseItemsSumAsTotal()
	})
}

// EditHeader edits one invoice header field.
func (s *ReviewService) EditHeader(ctx context.Context, userID, sessionID, field, value string) (*SessionView, error) {
	_, span := tracer.Start(ctx, "review.EditHeader")
	defer span.End()
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.EditHeaderField(field, value)
	})
}

// EnrichIssuer fills the issuer name from the CNPJ registry lookup. It only
// runs when the session's CNPJ is valid; the lookup result overwrites the
// issuer name but never the CNPJ the user typed.
func (s *ReviewService) EnrichIssuer(ctx context.Context, token, userID, sessionID string) (*SessionView, error) {
	ctx, span := tracer.Start(ctx, "review.EnrichIssuer")
	defer span.End()

	s.mu.Lock()
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !session.State.CNPJValid() {
		s.mu.Unlock()
		return nil, &domain.ErrValidation{Field: review.HeaderIssuerCNPJ, Message: "CNPJ inválido"}
	}
	digits := session.State.Data.IssuerCNPJ
	s.mu.Unlock()

	enrichment, err := s.enricher.LookupCNPJ(ctx, token, onlyDigits(digits))
	if err != nil {
		s.metrics.IncrBackendError("cnpj.lookup")
		return nil, err
	}

	name := enrichment.LegalName
	if enrichment.TradeName != "" {
		name = enrichment.TradeName
	}
	return s.transition(userID, sessionID, func(st review.State) review.State {
		return st.SetIssuerName(name)
	})
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// Confirm submits the session snapshot to the backend.
//
// Blocking field errors abort before any backend call. A backend rejection
// (invalid CNPJ, duplicate) keeps the session and its edits intact so the
// user can fix and resubmit; nothing is retried automatically. On success
// the session is discarded and the user's cached invoice pages are
// invalidated so the next list read refetches.
func (s *ReviewService) Confirm(ctx context.Context, token, userID, sessionID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "review.Confirm")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("review.confirm", time.Since(start)) }()

	s.mu.Lock()
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if fields := session.State.BlockingErrors(); len(fields) > 0 {
		s.mu.Unlock()
		s.metrics.IncrConfirmResult("blocked")
		return nil, &domain.ErrReviewBlocked{Fields: fields}
	}
	snapshot := session.State.Data
	s.mu.Unlock()

	invoice, err := s.backend.ConfirmInvoice(ctx, token, &snapshot)
	if err != nil {
		var invalidCNPJ *domain.ErrInvalidCNPJ
		var duplicate *domain.ErrDuplicateInvoice
		switch {
		case errors.As(err, &invalidCNPJ):
			s.metrics.IncrConfirmResult("invalid_cnpj")
			if invalidCNPJ.CNPJ == "" {
				invalidCNPJ.CNPJ = snapshot.IssuerCNPJ
			}
			s.setFieldError(userID, sessionID, review.HeaderIssuerCNPJ, "CNPJ inválido")
		case errors.As(err, &duplicate):
			s.metrics.IncrConfirmResult("duplicate")
		default:
			s.metrics.IncrConfirmResult("error")
			s.metrics.IncrBackendError("invoices.confirm")
		}
		s.logger.Warn("invoice confirmation rejected",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	s.mu.Lock()
	s.sessions.Delete(sessionKey(userID, sessionID))
	s.metrics.SetReviewSessions(s.sessions.Len())
	s.mu.Unlock()
	s.invoices.DeletePrefix("invoices:" + userID)

	s.metrics.IncrConfirmResult("confirmed")
	s.logger.Info("invoice confirmed",
		zap.String("session_id", sessionID),
		zap.String("invoice_id", invoice.ID),
	)
	return invoice, nil
}

// setFieldError records a backend-reported field error on a live session.
func (s *ReviewService) setFieldError(userID, sessionID, field, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return
	}
	if session.State.FieldErrors == nil {
		session.State.FieldErrors = map[string]string{}
	}
	session.State.FieldErrors[field] = message
	session.UpdatedAt = time.Now()
	s.sessions.Set(sessionKey(userID, sessionID), session)
}

// Abandon discards a session without confirming. Edits are lost.
func (s *ReviewService) Abandon(ctx context.Context, userID, sessionID string) error {
	_, span := tracer.Start(ctx, "review.Abandon")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(userID, sessionID); err != nil {
		return err
	}
	s.sessions.Delete(sessionKey(userID, sessionID))
	s.metrics.SetReviewSessions(s.sessions.Len())
	return nil
}

// ActiveSessions reports the number of live sessions across all users.
func (s *ReviewService) ActiveSessions() int {
	return s.sessions.Len()
}
