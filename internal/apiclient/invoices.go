package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"invoice-desk/internal/models"

	"github.com/shopspring/decimal"
)

// PDFHints are optional display hints forwarded to the PDF renderer
type PDFHints struct {
	ThankYouMessage string
	PendingAmount   decimal.Decimal
}

func (h PDFHints) query() url.Values {
	q := url.Values{}
	if h.ThankYouMessage != "" {
		q.Set("thank_you_message", h.ThankYouMessage)
	}
	if !h.PendingAmount.IsZero() {
		q.Set("pending_amount", h.PendingAmount.String())
	}
	return q
}

// CreateInvoice posts a draft. idempotencyKey travels as the Idempotency-Key header.
func (c *Client) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResult, error) {
	var result models.InvoiceResult
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	err := c.do(ctx, request{
		op:      "CreateInvoice",
		method:  http.MethodPost,
		path:    "/invoices/",
		body:    req,
		headers: headers,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.BillNumber == "" {
		return nil, fmt.Errorf("CreateInvoice: response has no bill number")
	}
	return &result, nil
}

func (c *Client) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := c.do(ctx, request{op: "ListInvoices", method: http.MethodGet, path: "/invoices/"}, &invoices)
	return invoices, err
}

// UpdateInvoiceStatus moves an invoice to status
func (c *Client) UpdateInvoiceStatus(ctx context.Context, id int64, status models.InvoiceStatus) (*models.Invoice, error) {
	var invoice models.Invoice
	body := map[string]models.InvoiceStatus{"status": status}
	if err := c.do(ctx, request{op: "UpdateInvoiceStatus", method: http.MethodPatch, path: idPath("/invoices", id), body: body}, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "DeleteInvoice", method: http.MethodDelete, path: idPath("/invoices", id)}, nil)
}

// InvoicePDF downloads the rendered document for an invoice
func (c *Client) InvoicePDF(ctx context.Context, id int64, hints PDFHints) ([]byte, error) {
	raw, err := c.send(ctx, request{
		op:     "InvoicePDF",
		method: http.MethodGet,
		path:   fmt.Sprintf("/invoices/%d/pdf/", id),
		query:  hints.query(),
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("InvoicePDF: empty document")
	}
	return raw, nil
}

// DailySales fetches the server's sales statistics for one day
func (c *Client) DailySales(ctx context.Context, day time.Time) (*models.DailySales, error) {
	var sales models.DailySales
	err := c.do(ctx, request{
		op:     "DailySales",
		method: http.MethodGet,
		path:   "/daily-sales/",
		query:  url.Values{"date": {day.Format("2006-01-02")}},
	}, &sales)
	if err != nil {
		return nil, err
	}
	return &sales, nil
}
