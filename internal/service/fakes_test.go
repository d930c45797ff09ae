package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/models"
)

type fakeRemote struct {
	mu        sync.Mutex
	items     []models.Product
	customers []models.Customer
	invoices  []models.Invoice
	nextID    int64
	listErr   error
	createErr map[string]error
	statuses  map[int64]models.InvoiceStatus
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100, createErr: map[string]error{}, statuses: map[int64]models.InvoiceStatus{}}
}

func (f *fakeRemote) ListItems(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Product(nil), f.items...), nil
}

func (f *fakeRemote) SearchItems(ctx context.Context, term string) ([]models.Product, error) {
	return nil, fmt.Errorf("search not expected")
}

func (f *fakeRemote) CreateItem(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[in.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	p := models.Product{ID: f.nextID, Name: in.Name, Price: in.Price, Stock: in.Stock}
	f.items = append(f.items, p)
	return &p, nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Name = in.Name
			f.items[i].Price = in.Price
			f.items[i].Stock = in.Stock
			p := f.items[i]
			return &p, nil
		}
	}
	return nil, &apiclient.APIError{Op: "UpdateItem", StatusCode: http.StatusNotFound}
}

func (f *fakeRemote) DeleteItem(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &apiclient.APIError{Op: "DeleteItem", StatusCode: http.StatusNotFound}
}

func (f *fakeRemote) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return f.customers, nil
}

func (f *fakeRemote) CreateCustomer(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	c := models.Customer{ID: int64(len(f.customers) + 1), Name: in.Name, Phone: in.Phone, Address: in.Address}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeRemote) UpdateCustomer(ctx context.Context, id int64, in models.CustomerInput) (*models.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			f.customers[i].Name = in.Name
			return &f.customers[i], nil
		}
	}
	return nil, &apiclient.APIError{Op: "UpdateCustomer", StatusCode: http.StatusNotFound}
}

func (f *fakeRemote) DeleteCustomer(ctx context.Context, id int64) error {
	return nil
}

func (f *fakeRemote) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, key string) (*models.InvoiceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv := models.Invoice{ID: f.nextID, BillNumber: "INV-20261016-001", CustomerName: req.CustomerName, Status: models.InvoiceStatusPending}
	f.invoices = append(f.invoices, inv)
	return &models.InvoiceResult{Invoice: inv}, nil
}

func (f *fakeRemote) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeRemote) UpdateInvoiceStatus(ctx context.Context, id int64, status models.InvoiceStatus) (*models.Invoice, error) {
	f.statuses[id] = status
	return &models.Invoice{ID: id, Status: status}, nil
}

func (f *fakeRemote) DeleteInvoice(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, inv := range f.invoices {
		if inv.ID == id {
			f.invoices = append(f.invoices[:i], f.invoices[i+1:]...)
			return nil
		}
	}
	return &apiclient.APIError{Op: "DeleteInvoice", StatusCode: 404, Message: "Not found."}
}

func (f *fakeRemote) InvoicePDF(ctx context.Context, id int64, hints apiclient.PDFHints) ([]byte, error) {
	return []byte("%PDF"), nil
}

func (f *fakeRemote) DailySales(ctx context.Context, day time.Time) (*models.DailySales, error) {
	return &models.DailySales{Date: day.Format("2006-01-02")}, nil
}

type fakeEvents struct {
	mu      sync.Mutex
	changed []*models.InvoiceStatusChangedEvent
}

func (e *fakeEvents) PublishInvoiceSubmitted(ctx context.Context, event *models.InvoiceSubmittedEvent) error {
	return nil
}

func (e *fakeEvents) PublishInvoiceFailed(ctx context.Context, event *models.InvoiceFailedEvent) error {
	return nil
}

func (e *fakeEvents) PublishInvoiceStatusChanged(ctx context.Context, event *models.InvoiceStatusChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changed = append(e.changed, event)
	return nil
}

type fakeLocker struct {
	held map[string]bool
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	delete(l.held, key)
	return nil
}
