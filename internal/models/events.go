package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeInvoiceSubmitted     = "INVOICE_SUBMITTED"
	EventTypeInvoiceFailed        = "INVOICE_FAILED"
	EventTypeInvoiceStatusChanged = "INVOICE_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// InvoiceSubmittedEvent published when the remote service created an invoice
type InvoiceSubmittedEvent struct {
	BaseEvent
	InvoiceID     int64           `json:"invoice_id"`
	BillNumber    string          `json:"bill_number"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Lines         []CartLine      `json:"lines"`
	PDFWarning    string          `json:"pdf_warning,omitempty"`
}

// InvoiceFailedEvent published when a submission reached the network and failed
type InvoiceFailedEvent struct {
	BaseEvent
	CustomerName string `json:"customer_name"`
	Reason       string `json:"reason"`
}

// InvoiceStatusChangedEvent published after a status PATCH succeeded
type InvoiceStatusChangedEvent struct {
	BaseEvent
	InvoiceID int64         `json:"invoice_id"`
	Status    InvoiceStatus `json:"status"`
}
