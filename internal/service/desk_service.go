package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/catalog"
	"invoice-desk/internal/customer"
	"invoice-desk/internal/invoice"
	"invoice-desk/internal/models"
	"invoice-desk/internal/pricing"
	"invoice-desk/internal/reports"
	"invoice-desk/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound  = errors.New("product not found in catalog")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNotInCart        = errors.New("product is not in the cart")
	ErrInvalidStatus    = errors.New("status must be one of pending, paid, cancelled")
	ErrImportInProgress = errors.New("another catalog import is running")
)

// RemoteAPI is everything the desk asks of the remote invoicing service
type RemoteAPI interface {
	ListItems(ctx context.Context) ([]models.Product, error)
	SearchItems(ctx context.Context, term string) ([]models.Product, error)
	CreateItem(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateItem(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error)
	DeleteItem(ctx context.Context, id int64) error

	ListCustomers(ctx context.Context) ([]models.Customer, error)
	CreateCustomer(ctx context.Context, in models.CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in models.CustomerInput) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResult, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status models.InvoiceStatus) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	InvoicePDF(ctx context.Context, id int64, hints apiclient.PDFHints) ([]byte, error)
	DailySales(ctx context.Context, day time.Time) (*models.DailySales, error)
}

// Journal stores and lists submission attempts
type Journal interface {
	invoice.Journal
	ListSubmissions(ctx context.Context, sessionID string, limit int) ([]models.SubmissionRecord, error)
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error)
}

// Events publishes desk events
type Events interface {
	invoice.EventSink
	PublishInvoiceStatusChanged(ctx context.Context, event *models.InvoiceStatusChangedEvent) error
}

// TallyReader reads the running per-day tally
type TallyReader interface {
	GetTally(ctx context.Context, day time.Time) (int64, decimal.Decimal, error)
}

// Locker guards work that must not run twice at once across desk processes
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// Deps are the collaborators of DeskService. Only Remote is required.
type Deps struct {
	Remote    RemoteAPI
	Snapshots catalog.Snapshots
	Journal   Journal
	Events    Events
	Tally     TallyReader
	Locker    Locker
}

// Options tune desk behaviour
type Options struct {
	PageSize       int
	SearchDebounce time.Duration
	SubmitTimeout  time.Duration
	IdleTTL        time.Duration
}

// DeskService owns the open desks and the operations on them
type DeskService struct {
	remote    RemoteAPI
	snapshots catalog.Snapshots
	journal   Journal
	events    Events
	tally     TallyReader
	locker    Locker
	opts      Options
	desks     registry
	now       func() time.Time
	logger    *zap.Logger
}

// NewDeskService creates a new desk service
func NewDeskService(deps Deps, opts Options) *DeskService {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}

	return &DeskService{
		remote:    deps.Remote,
		snapshots: deps.Snapshots,
		journal:   deps.Journal,
		events:    deps.Events,
		tally:     deps.Tally,
		locker:    deps.Locker,
		opts:      opts,
		desks:     registry{desks: map[string]*Desk{}},
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

const staleCatalogWarning = "Catalog could not be refreshed; showing saved items"

// CatalogQuery selects a page of the catalog. Search goes to the remote
// service (debounced); Filter is a local name filter over the loaded list.
type CatalogQuery struct {
	Search   string
	Filter   string
	Stock    catalog.StockLevel
	Page     int
	PageSize int
}

// CatalogPage is one page of products
type CatalogPage struct {
	Items      []models.Product `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	TotalItems int              `json:"total_items"`
	Warning    string           `json:"warning,omitempty"`
}

// Catalog returns a page of the desk's catalog, loading it first if needed.
// A failed load with earlier data still available is reported as a warning.
func (s *DeskService) Catalog(ctx context.Context, d *Desk, q CatalogQuery) (*CatalogPage, error) {
	ctx, span := util.StartSpan(ctx, "DeskService.Catalog")
	defer span.End()

	page := &CatalogPage{}

	if !d.Catalog.Loaded() {
		items, err := d.Catalog.Load(ctx)
		if err != nil && len(items) == 0 {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	if err := d.Catalog.LastError(); err != nil {
		page.Warning = apiclient.MessageOf(err, staleCatalogWarning)
	}

	items := d.Catalog.Products()
	if strings.TrimSpace(q.Search) != "" {
		found, err := d.Catalog.Search(ctx, q.Search)
		if err != nil {
			return nil, err
		}
		items = found
	}

	items = catalog.FilterByName(items, q.Filter)
	items = catalog.StockFilter(items, q.Stock)

	size := q.PageSize
	if size <= 0 {
		size = s.opts.PageSize
	}
	number := q.Page
	if number < 1 {
		number = 1
	}

	page.Items = catalog.Paginate(items, size, number)
	page.Page = number
	page.PageSize = size
	page.TotalItems = len(items)
	page.TotalPages = catalog.PageCount(len(items), size)
	return page, nil
}

// ReloadCatalog refetches the full catalog
func (s *DeskService) ReloadCatalog(ctx context.Context, d *Desk) ([]models.Product, error) {
	return d.Catalog.Load(ctx)
}

// CartView is the cart with totals derived from it. Display is Totals
// rounded to two places for showing; Totals stays exact.
type CartView struct {
	Lines   []models.CartLine `json:"lines"`
	Totals  pricing.Totals    `json:"totals"`
	Display pricing.Totals    `json:"display"`
}

// Cart returns the cart lines and their totals
func (s *DeskService) Cart(d *Desk) CartView {
	lines := d.Ledger.Snapshot()
	totals := pricing.ComputeTotals(lines)
	return CartView{Lines: lines, Totals: totals, Display: totals.Rounded(2)}
}

// AddToCart adds one unit of a catalog product. Stock is not checked.
func (s *DeskService) AddToCart(ctx context.Context, d *Desk, productID int64) (CartView, error) {
	p, ok := d.Catalog.Lookup(productID)
	if !ok && !d.Catalog.Loaded() {
		if _, err := d.Catalog.Load(ctx); err != nil {
			s.logger.Warn("Catalog load before add failed", zap.Error(err))
		}
		p, ok = d.Catalog.Lookup(productID)
	}
	if !ok {
		return CartView{}, ErrProductNotFound
	}

	d.Ledger.Add(p)
	return s.Cart(d), nil
}

// UpdateCartQuantity changes a line's quantity by delta, never below one
func (s *DeskService) UpdateCartQuantity(d *Desk, productID int64, delta int) (CartView, error) {
	if _, ok := d.Ledger.UpdateQuantity(productID, delta); !ok {
		return CartView{}, ErrNotInCart
	}
	return s.Cart(d), nil
}

// RemoveFromCart deletes a line
func (s *DeskService) RemoveFromCart(d *Desk, productID int64) (CartView, error) {
	if !d.Ledger.Remove(productID) {
		return CartView{}, ErrNotInCart
	}
	return s.Cart(d), nil
}

// SelectCustomer binds a saved customer to the draft
func (s *DeskService) SelectCustomer(ctx context.Context, d *Desk, customerID int64) (models.CustomerDraft, error) {
	list, err := s.remote.ListCustomers(ctx)
	if err != nil {
		return models.CustomerDraft{}, fmt.Errorf("failed to list customers: %w", err)
	}

	for _, c := range list {
		if c.ID == customerID {
			return d.Customer.SelectExisting(c), nil
		}
	}
	return models.CustomerDraft{}, ErrCustomerNotFound
}

// EditCustomer sets one field of the draft
func (s *DeskService) EditCustomer(d *Desk, field, value string) (models.CustomerDraft, error) {
	return d.Customer.Edit(field, value)
}

// Submit runs the submission flow for the desk
func (s *DeskService) Submit(ctx context.Context, d *Desk) (*invoice.Outcome, error) {
	return d.Flow.Submit(ctx)
}

// Submissions lists the session's recent submission attempts
func (s *DeskService) Submissions(ctx context.Context, d *Desk, limit int) ([]models.SubmissionRecord, error) {
	if s.journal == nil {
		return []models.SubmissionRecord{}, nil
	}
	return s.journal.ListSubmissions(ctx, d.SessionID, limit)
}

// SubmissionStats counts journaled attempts since the given time by outcome
func (s *DeskService) SubmissionStats(ctx context.Context, since time.Time) (map[string]int, error) {
	if s.journal == nil {
		return map[string]int{}, nil
	}
	return s.journal.CountByOutcome(ctx, since)
}

// Customers lists saved customers, filtered by name or phone
func (s *DeskService) Customers(ctx context.Context, search string) ([]models.Customer, error) {
	list, err := s.remote.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return customer.FilterCustomers(list, search), nil
}

func (s *DeskService) CreateCustomer(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	return s.remote.CreateCustomer(ctx, in)
}

func (s *DeskService) UpdateCustomer(ctx context.Context, id int64, in models.CustomerInput) (*models.Customer, error) {
	c, err := s.remote.UpdateCustomer(ctx, id, in)
	if apiclient.IsNotFound(err) {
		return nil, ErrCustomerNotFound
	}
	return c, err
}

func (s *DeskService) DeleteCustomer(ctx context.Context, id int64) error {
	err := s.remote.DeleteCustomer(ctx, id)
	if apiclient.IsNotFound(err) {
		return ErrCustomerNotFound
	}
	return err
}

// Invoices lists remote invoices matching search and status
func (s *DeskService) Invoices(ctx context.Context, search, status string) ([]models.Invoice, error) {
	list, err := s.remote.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	return reports.SearchInvoices(list, search, status), nil
}

// UpdateInvoiceStatus validates and applies a status change
func (s *DeskService) UpdateInvoiceStatus(ctx context.Context, d *Desk, id int64, status string) (*models.Invoice, error) {
	parsed, ok := models.ParseInvoiceStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	inv, err := s.remote.UpdateInvoiceStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		event := &models.InvoiceStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeInvoiceStatusChanged,
				Timestamp: s.now().UTC(),
				SessionID: d.SessionID,
			},
			InvoiceID: id,
			Status:    parsed,
		}
		if err := s.events.PublishInvoiceStatusChanged(ctx, event); err != nil {
			s.logger.Warn("Failed to publish status change", zap.Int64("invoice_id", id), zap.Error(err))
		}
	}
	return inv, nil
}

// DeleteInvoice removes a remote invoice
func (s *DeskService) DeleteInvoice(ctx context.Context, id int64) error {
	if err := s.remote.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

// InvoicePDF fetches the PDF of an existing invoice
func (s *DeskService) InvoicePDF(ctx context.Context, id int64, hints apiclient.PDFHints) ([]byte, error) {
	return s.remote.InvoicePDF(ctx, id, hints)
}

// ReportSummary summarises the remote invoices matching criteria
func (s *DeskService) ReportSummary(ctx context.Context, criteria reports.Criteria) (*reports.Summary, error) {
	list, err := s.remote.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	summary := reports.Summarize(criteria.Apply(list))
	return &summary, nil
}

// DailySales passes through the remote daily sales report
func (s *DeskService) DailySales(ctx context.Context, day time.Time) (*models.DailySales, error) {
	return s.remote.DailySales(ctx, day)
}

// TallyView is the desk-side running tally for one day
type TallyView struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Tally returns the running tally for day
func (s *DeskService) Tally(ctx context.Context, day time.Time) (*TallyView, error) {
	view := &TallyView{Date: day.Format("2006-01-02"), Total: decimal.Zero}
	if s.tally == nil {
		return view, nil
	}

	count, total, err := s.tally.GetTally(ctx, day)
	if err != nil {
		return nil, err
	}
	view.Count = count
	view.Total = total
	return view, nil
}
