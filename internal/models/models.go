package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the remote catalog
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// ProductInput is the write shape for catalog create/update calls
type ProductInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Customer represents a saved customer record
type Customer struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CustomerInput is the write shape for customer create/update calls
type CustomerInput struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// CartLine is one product line in a draft invoice. Name and Price are
// snapshots taken when the product was first added.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CustomerDraft is the customer half of a draft invoice
type CustomerDraft struct {
	CustomerID int64  `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// InvoiceLineRequest is one line of a create-invoice request
type InvoiceLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// CreateInvoiceRequest is the body of POST /invoices/
type CreateInvoiceRequest struct {
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	Items         []InvoiceLineRequest `json:"items"`
}

// InvoiceItem is a stored invoice line as returned by the remote API
type InvoiceItem struct {
	ID       int64           `json:"id"`
	ItemName string          `json:"item_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Invoice represents an invoice as listed by the remote API
type Invoice struct {
	ID              int64           `json:"id"`
	BillNumber      string          `json:"bill_number"`
	CustomerID      *int64          `json:"customer,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	Status          InvoiceStatus   `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	ThankYouMessage *string         `json:"thank_you_message,omitempty"`
	Items           []InvoiceItem   `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PendingItem describes a line of an earlier unpaid invoice carried into a new one
type PendingItem struct {
	Description       string          `json:"description"`
	Qty               int             `json:"qty"`
	Price             decimal.Decimal `json:"price"`
	Total             decimal.Decimal `json:"total"`
	InvoiceBillNumber string          `json:"invoice_bill_number"`
}

// InvoiceResult is the response of a successful invoice creation
type InvoiceResult struct {
	Invoice
	PreviousPendingItems []PendingItem `json:"previous_pending_items,omitempty"`
}

// ThankYou returns the thank-you message or "" when the server sent none
func (r *InvoiceResult) ThankYou() string {
	if r.ThankYouMessage == nil {
		return ""
	}
	return *r.ThankYouMessage
}

// HasPendingBalance reports whether an unpaid balance was carried over
func (r *InvoiceResult) HasPendingBalance() bool {
	return r.PendingAmount.IsPositive()
}

// InvoiceStatus is the lifecycle state of a remote invoice
type InvoiceStatus string

// Invoice statuses
const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ParseInvoiceStatus normalises s and reports whether it names a known status
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	status := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusCancelled:
		return status, true
	}
	return "", false
}

// User is the shopkeeper identity returned by the auth service
type User struct {
	ShopName          string `json:"shop_name"`
	ShopkeeperName    string `json:"shopkeeper_name,omitempty"`
	GSTNumber         string `json:"gst_number,omitempty"`
	AccountNumber     string `json:"account_number,omitempty"`
	BankName          string `json:"bank_name,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

// LoginRequest is the body of POST /auth/login/
type LoginRequest struct {
	ShopName string `json:"shop_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest is the body of POST /auth/signup/
type SignupRequest struct {
	ShopkeeperName    string `json:"shopkeeper_name" binding:"required"`
	ShopName          string `json:"shop_name" binding:"required"`
	GSTNumber         string `json:"gst_number"`
	AccountNumber     string `json:"account_number"`
	BankName          string `json:"bank_name"`
	AccountHolderName string `json:"account_holder_name"`
	Password          string `json:"password" binding:"required"`
}

// TopItem is one entry of the daily top sellers list
type TopItem struct {
	ItemName      string          `json:"item__name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// DailySales is the response of GET /daily-sales/
type DailySales struct {
	Date            string          `json:"date"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	InvoiceCount    int             `json:"invoice_count"`
	AvgInvoiceValue decimal.Decimal `json:"avg_invoice_value"`
	ItemsSold       int             `json:"items_sold"`
	TopItems        []TopItem       `json:"top_items"`
}
