// Package invoice drives a draft invoice from validation to a created
// remote invoice and its PDF.
package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/cart"
	"invoice-desk/internal/customer"
	"invoice-desk/internal/models"
	"invoice-desk/internal/pricing"
	"invoice-desk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSubmissionInProgress is returned when Submit is called while a submission is outstanding
var ErrSubmissionInProgress = errors.New("invoice submission already in progress")

const (
	genericFailure = "Failed to create invoice"
	pdfFailure     = "Invoice created but PDF generation failed. Please try again."
)

// State of the submission flow
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Gateway is the part of the remote API the flow needs
type Gateway interface {
	CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResult, error)
	InvoicePDF(ctx context.Context, id int64, hints apiclient.PDFHints) ([]byte, error)
}

// Journal records submission attempts
type Journal interface {
	SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error
}

// EventSink receives submission events
type EventSink interface {
	PublishInvoiceSubmitted(ctx context.Context, event *models.InvoiceSubmittedEvent) error
	PublishInvoiceFailed(ctx context.Context, event *models.InvoiceFailedEvent) error
}

// Deps wires a Flow. Journal and Events are optional.
type Deps struct {
	SessionID string
	Gateway   Gateway
	Ledger    *cart.Ledger
	Customer  *customer.Selection
	Journal   Journal
	Events    EventSink
	Timeout   time.Duration
}

// Outcome is what a successful submission reports back
type Outcome struct {
	Invoice    *models.InvoiceResult `json:"invoice"`
	Totals     pricing.Totals        `json:"totals"`
	PDF        []byte                `json:"-"`
	PDFWarning string                `json:"pdf_warning,omitempty"`
}

// SubmitError carries the user-facing message of a failed remote submission
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Flow is the submission state machine for one desk
type Flow struct {
	deps   Deps
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

// NewFlow creates an idle flow
func NewFlow(deps Deps) *Flow {
	return &Flow{
		deps:   deps,
		logger: util.GetLogger(),
		state:  StateIdle,
	}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// begin moves Idle to Validating, refusing while a submission is outstanding
func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrSubmissionInProgress
	}
	f.state = StateValidating
	return nil
}

// Submit validates the draft, creates the invoice and fetches its PDF.
// On success the ledger and customer draft are reset. On any failure they
// are left as they were. The flow is Idle again when Submit returns.
func (f *Flow) Submit(ctx context.Context) (*Outcome, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	defer f.setState(StateIdle)

	ctx, span := util.StartSpan(ctx, "Flow.Submit")
	defer span.End()

	draft := f.deps.Customer.Draft()
	lines := f.deps.Ledger.Snapshot()

	if err := validate(draft, lines); err != nil {
		f.setState(StateFailed)
		util.InvoiceSubmissionsFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	f.setState(StateSubmitting)
	start := time.Now()

	if f.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.deps.Timeout)
		defer cancel()
	}

	totals := pricing.ComputeTotals(lines)
	key := uuid.New().String()
	req := BuildRequest(draft, lines)

	rec := &models.SubmissionRecord{
		SessionID:      f.deps.SessionID,
		IdempotencyKey: key,
		CustomerName:   req.CustomerName,
		LineCount:      len(lines),
		Subtotal:       totals.Subtotal,
		Total:          totals.Total,
	}

	result, err := f.deps.Gateway.CreateInvoice(ctx, req, key)
	util.InvoiceSubmitLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		f.setState(StateFailed)
		return nil, f.fail(ctx, rec, err)
	}

	f.setState(StateSuccess)
	util.InvoicesSubmittedTotal.Inc()

	f.deps.Ledger.Clear()
	f.deps.Customer.Reset()

	outcome := &Outcome{Invoice: result, Totals: totals}

	hints := apiclient.PDFHints{ThankYouMessage: result.ThankYou()}
	if result.HasPendingBalance() {
		hints.PendingAmount = result.PendingAmount
	}

	doc, err := f.deps.Gateway.InvoicePDF(ctx, result.ID, hints)
	if err != nil {
		util.InvoicePDFFailuresTotal.Inc()
		f.logger.Warn("Invoice PDF fetch failed",
			zap.Int64("invoice_id", result.ID),
			zap.Error(err))
		outcome.PDFWarning = pdfFailure
	} else {
		outcome.PDF = doc
	}

	rec.Outcome = models.SubmissionCreated
	rec.InvoiceID = sql.NullInt64{Int64: result.ID, Valid: true}
	rec.BillNumber = sql.NullString{String: result.BillNumber, Valid: true}
	rec.PDFWarning = sql.NullString{String: outcome.PDFWarning, Valid: outcome.PDFWarning != ""}
	f.journal(ctx, rec)

	f.publishSubmitted(ctx, rec, result, lines, outcome.PDFWarning)

	f.logger.Info("Invoice submitted",
		zap.String("session_id", f.deps.SessionID),
		zap.Int64("invoice_id", result.ID),
		zap.String("bill_number", result.BillNumber),
		zap.String("total", result.Total.String()))

	return outcome, nil
}

func validate(draft models.CustomerDraft, lines []models.CartLine) error {
	if err := customer.ValidateDraft(draft); err != nil {
		return err
	}
	if len(lines) == 0 {
		return cart.ErrCartEmpty
	}
	return nil
}

// BuildRequest turns a customer draft and ledger snapshot into the create-invoice body
func BuildRequest(draft models.CustomerDraft, lines []models.CartLine) models.CreateInvoiceRequest {
	items := make([]models.InvoiceLineRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.InvoiceLineRequest{ItemID: l.ProductID, Quantity: l.Quantity})
	}

	return models.CreateInvoiceRequest{
		CustomerName:  strings.TrimSpace(draft.Name),
		CustomerPhone: strings.TrimSpace(draft.Phone),
		Items:         items,
	}
}

func (f *Flow) fail(ctx context.Context, rec *models.SubmissionRecord, err error) error {
	reason := "remote"
	rec.Outcome = models.SubmissionRejected

	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
		rec.Outcome = models.SubmissionFailed
	case !errors.As(err, &apiErr):
		reason = "transport"
		rec.Outcome = models.SubmissionFailed
	}
	util.InvoiceSubmissionsFailedTotal.WithLabelValues(reason).Inc()

	msg := apiclient.MessageOf(err, genericFailure)
	rec.ErrorMessage = sql.NullString{String: msg, Valid: true}

	f.logger.Error("Invoice submission failed",
		zap.String("session_id", f.deps.SessionID),
		zap.String("reason", reason),
		zap.Error(err))

	f.journal(ctx, rec)

	if f.deps.Events != nil {
		event := &models.InvoiceFailedEvent{
			BaseEvent:    newBaseEvent(models.EventTypeInvoiceFailed, f.deps.SessionID),
			CustomerName: rec.CustomerName,
			Reason:       msg,
		}
		pctx, cancel := detach(ctx)
		defer cancel()
		if perr := f.deps.Events.PublishInvoiceFailed(pctx, event); perr != nil {
			f.logger.Warn("Failed to publish invoice failed event", zap.Error(perr))
		}
	}

	return &SubmitError{Message: msg, Err: fmt.Errorf("create invoice: %w", err)}
}

func (f *Flow) journal(ctx context.Context, rec *models.SubmissionRecord) {
	if f.deps.Journal == nil {
		return
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	if err := f.deps.Journal.SaveSubmission(ctx, rec); err != nil {
		f.logger.Warn("Failed to journal submission",
			zap.String("idempotency_key", rec.IdempotencyKey),
			zap.Error(err))
	}
}

func (f *Flow) publishSubmitted(ctx context.Context, rec *models.SubmissionRecord, result *models.InvoiceResult, lines []models.CartLine, warning string) {
	if f.deps.Events == nil {
		return
	}

	event := &models.InvoiceSubmittedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeInvoiceSubmitted, f.deps.SessionID),
		InvoiceID:     result.ID,
		BillNumber:    result.BillNumber,
		CustomerName:  rec.CustomerName,
		Total:         result.Total,
		PendingAmount: result.PendingAmount,
		Lines:         lines,
		PDFWarning:    warning,
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	if err := f.deps.Events.PublishInvoiceSubmitted(ctx, event); err != nil {
		f.logger.Warn("Failed to publish invoice submitted event",
			zap.Int64("invoice_id", result.ID),
			zap.Error(err))
	}
}

func newBaseEvent(eventType, sessionID string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}

// detach gives best-effort side effects their own deadline so a timed out
// submission can still be journaled.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}
