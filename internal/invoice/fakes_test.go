package invoice

import (
	"context"
	"errors"
	"sync"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/models"

	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	mu       sync.Mutex
	creates  []models.CreateInvoiceRequest
	keys     []string
	pdfHints []apiclient.PDFHints

	result    *models.InvoiceResult
	createErr error
	pdfErr    error
	block     chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		result: &models.InvoiceResult{Invoice: models.Invoice{
			ID:         31,
			BillNumber: "INV-20261016-001",
			Status:     models.InvoiceStatusPending,
			Total:      decimal.RequireFromString("206"),
		}},
	}
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, key string) (*models.InvoiceResult, error) {
	g.mu.Lock()
	g.creates = append(g.creates, req)
	g.keys = append(g.keys, key)
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.result, nil
}

func (g *fakeGateway) InvoicePDF(ctx context.Context, id int64, hints apiclient.PDFHints) ([]byte, error) {
	g.mu.Lock()
	g.pdfHints = append(g.pdfHints, hints)
	g.mu.Unlock()
	if g.pdfErr != nil {
		return nil, g.pdfErr
	}
	return []byte("%PDF-1.4"), nil
}

func (g *fakeGateway) createCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.creates)
}

type fakeJournal struct {
	mu      sync.Mutex
	records []models.SubmissionRecord
	err     error
}

func (j *fakeJournal) SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *rec)
	return j.err
}

type fakeEvents struct {
	mu        sync.Mutex
	submitted []*models.InvoiceSubmittedEvent
	failed    []*models.InvoiceFailedEvent
}

func (e *fakeEvents) PublishInvoiceSubmitted(ctx context.Context, event *models.InvoiceSubmittedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitted = append(e.submitted, event)
	return nil
}

func (e *fakeEvents) PublishInvoiceFailed(ctx context.Context, event *models.InvoiceFailedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed = append(e.failed, event)
	return errors.New("broker down")
}
