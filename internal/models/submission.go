package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Submission outcomes recorded in the journal
const (
	SubmissionCreated  = "created"
	SubmissionRejected = "rejected"
	SubmissionFailed   = "failed"
)

// SubmissionRecord is one journaled invoice submission attempt
type SubmissionRecord struct {
	ID             int64           `db:"id" json:"id"`
	SessionID      string          `db:"session_id" json:"session_id"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key"`
	CustomerName   string          `db:"customer_name" json:"customer_name"`
	LineCount      int             `db:"line_count" json:"line_count"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	Total          decimal.Decimal `db:"total" json:"total"`
	Outcome        string          `db:"outcome" json:"outcome"`
	InvoiceID      sql.NullInt64   `db:"invoice_id" json:"-"`
	BillNumber     sql.NullString  `db:"bill_number" json:"-"`
	ErrorMessage   sql.NullString  `db:"error_message" json:"-"`
	PDFWarning     sql.NullString  `db:"pdf_warning" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
