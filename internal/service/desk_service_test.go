package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/catalog"
	"invoice-desk/internal/models"
	"invoice-desk/internal/reports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, name string, price int64, stock int) models.Product {
	return models.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), Stock: stock}
}

func setupService(t *testing.T) (*DeskService, *fakeRemote, *fakeEvents) {
	t.Helper()

	remote := newFakeRemote()
	remote.items = []models.Product{
		product(1, "Basmati Rice", 120, 40),
		product(2, "Brown Rice", 90, 3),
		product(3, "Sunflower Oil", 150, 7),
	}
	events := &fakeEvents{}
	svc := NewDeskService(Deps{
		Remote: remote,
		Events: events,
		Locker: &fakeLocker{held: map[string]bool{}},
	}, Options{PageSize: 2, IdleTTL: time.Hour})
	return svc, remote, events
}

func TestOpenDesk_ReusesPerSession(t *testing.T) {
	svc, _, _ := setupService(t)

	a := svc.OpenDesk("s1", models.User{ShopName: "Corner"})
	b := svc.OpenDesk("s1", models.User{ShopName: "Corner"})
	c := svc.OpenDesk("s2", models.User{ShopName: "Other"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	got, ok := svc.GetDesk("s2")
	require.True(t, ok)
	assert.Same(t, c, got)

	svc.CloseDesk("s2")
	_, ok = svc.GetDesk("s2")
	assert.False(t, ok)
}

func TestSweepIdle(t *testing.T) {
	svc, _, _ := setupService(t)
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	svc.OpenDesk("old", models.User{})
	svc.now = func() time.Time { return start.Add(50 * time.Minute) }
	svc.OpenDesk("fresh", models.User{})

	svc.now = func() time.Time { return start.Add(90 * time.Minute) }
	assert.Equal(t, 1, svc.SweepIdle())

	_, ok := svc.GetDesk("old")
	assert.False(t, ok)
	_, ok = svc.GetDesk("fresh")
	assert.True(t, ok)
}

func TestCatalog_PagesAndFilters(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	page, err := svc.Catalog(ctx, d, CatalogQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Sunflower Oil", page.Items[0].Name)

	page, err = svc.Catalog(ctx, d, CatalogQuery{Filter: "rice", Stock: catalog.StockLow})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Brown Rice", page.Items[0].Name)

	page, err = svc.Catalog(ctx, d, CatalogQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCatalog_LoadFailureWithNothingToShow(t *testing.T) {
	svc, remote, _ := setupService(t)
	remote.listErr = errors.New("connection refused")
	d := svc.OpenDesk("s1", models.User{})

	_, err := svc.Catalog(context.Background(), d, CatalogQuery{})
	assert.Error(t, err)
}

func TestCatalog_FailedReloadShowsWarning(t *testing.T) {
	svc, remote, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	page, err := svc.Catalog(ctx, d, CatalogQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Warning)

	remote.mu.Lock()
	remote.listErr = errors.New("connection refused")
	remote.mu.Unlock()

	_, err = svc.ReloadCatalog(ctx, d)
	require.Error(t, err)

	page, err = svc.Catalog(ctx, d, CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, staleCatalogWarning, page.Warning)

	remote.mu.Lock()
	remote.listErr = nil
	remote.mu.Unlock()

	_, err = svc.ReloadCatalog(ctx, d)
	require.NoError(t, err)
	page, err = svc.Catalog(ctx, d, CatalogQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Warning)
}

func TestCart_AddAdjustRemove(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	view, err := svc.AddToCart(ctx, d, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, d, 1)
	require.NoError(t, err)
	view, err = svc.AddToCart(ctx, d, 3)
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, "390", view.Totals.Subtotal.String())
	assert.Equal(t, "401.70", view.Display.Total.StringFixed(2))
	assert.Equal(t, "19.5", view.Display.Tax.String())

	view, err = svc.UpdateCartQuantity(d, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Lines[0].Quantity)

	_, err = svc.RemoveFromCart(d, 3)
	require.NoError(t, err)
	_, err = svc.RemoveFromCart(d, 3)
	assert.ErrorIs(t, err, ErrNotInCart)

	_, err = svc.AddToCart(ctx, d, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSelectCustomer(t *testing.T) {
	svc, remote, _ := setupService(t)
	remote.customers = []models.Customer{{ID: 7, Name: "Asha", Phone: "98450"}}
	d := svc.OpenDesk("s1", models.User{})

	draft, err := svc.SelectCustomer(context.Background(), d, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), draft.CustomerID)
	assert.Equal(t, "Asha", d.Customer.Draft().Name)

	_, err = svc.SelectCustomer(context.Background(), d, 8)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestSubmit_ThroughDesk(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, d, 2)
	require.NoError(t, err)
	_, err = svc.EditCustomer(d, "name", "Ravi")
	require.NoError(t, err)

	out, err := svc.Submit(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "INV-20261016-001", out.Invoice.BillNumber)
	assert.True(t, d.Ledger.IsEmpty())

	list, err := svc.Submissions(ctx, d, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	stats, err := svc.SubmissionStats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestDeleteInvoice(t *testing.T) {
	svc, remote, _ := setupService(t)
	remote.invoices = []models.Invoice{{ID: 4, CustomerName: "Asha"}}

	require.NoError(t, svc.DeleteInvoice(context.Background(), 4))
	assert.Empty(t, remote.invoices)

	err := svc.DeleteInvoice(context.Background(), 4)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestUpdateInvoiceStatus(t *testing.T) {
	svc, remote, events := setupService(t)
	d := svc.OpenDesk("s1", models.User{})

	_, err := svc.UpdateInvoiceStatus(context.Background(), d, 5, "refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, remote.statuses)

	inv, err := svc.UpdateInvoiceStatus(context.Background(), d, 5, "Paid")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	require.Len(t, events.changed, 1)
	assert.Equal(t, "s1", events.changed[0].SessionID)
}

func TestInvoicesAndReports(t *testing.T) {
	svc, remote, _ := setupService(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	remote.invoices = []models.Invoice{
		{ID: 1, CustomerName: "Asha", Status: models.InvoiceStatusPaid, Total: decimal.NewFromInt(100), CreatedAt: now},
		{ID: 2, CustomerName: "Ravi", Status: models.InvoiceStatusCancelled, Total: decimal.NewFromInt(50), CreatedAt: now},
	}

	list, err := svc.Invoices(context.Background(), "asha", "all")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	summary, err := svc.ReportSummary(context.Background(), reports.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.InvoiceCount)
	assert.Equal(t, "100", summary.TotalRevenue.String())

	tally, err := svc.Tally(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", tally.Date)
	assert.Zero(t, tally.Count)
}

func TestRemoteNotFoundMapsToSentinels(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, d, 99, models.ProductInput{Name: "Salt", Price: decimal.NewFromInt(20), Stock: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteItem(ctx, d, 99), ErrProductNotFound)
	require.NoError(t, svc.DeleteItem(ctx, d, 1))

	_, err = svc.UpdateCustomer(ctx, 99, models.CustomerInput{Name: "Asha"})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestAddOrMergeItem(t *testing.T) {
	svc, remote, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	ctx := context.Background()

	p, merged, err := svc.AddOrMergeItem(ctx, d, models.ProductInput{Name: "  brown RICE ", Price: decimal.NewFromInt(95), Stock: 10})
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, "Brown Rice", p.Name)
	assert.Equal(t, 13, p.Stock)
	assert.Equal(t, "95", p.Price.String())

	p, merged, err = svc.AddOrMergeItem(ctx, d, models.ProductInput{Name: "Salt", Price: decimal.NewFromInt(20), Stock: 5})
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Len(t, remote.items, 4)

	_, ok := d.Catalog.Lookup(p.ID)
	assert.True(t, ok, "catalog is refreshed after a write")

	_, _, err = svc.AddOrMergeItem(ctx, d, models.ProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestImportCSV(t *testing.T) {
	svc, remote, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	remote.createErr["Broken"] = errors.New("boom")

	csvData := strings.Join([]string{
		"stock,name,price",
		"5,Salt,20",
		"2,basmati rice,125",
		",Sugar,40",
		"x,Tea,10",
		"1,Broken,1",
		"4,salt,22",
	}, "\n")

	res, err := svc.ImportCSV(context.Background(), d, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Merged)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "line 6")

	var salt models.Product
	for _, p := range remote.items {
		if p.Name == "Salt" {
			salt = p
		}
	}
	assert.Equal(t, 9, salt.Stock)
	assert.Equal(t, "22", salt.Price.String())
}

func TestImportCSV_MissingColumn(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})

	_, err := svc.ImportCSV(context.Background(), d, strings.NewReader("name,price\nSalt,20\n"))
	assert.ErrorIs(t, err, ErrInvalidCSV)
	assert.ErrorContains(t, err, `"stock"`)
}

func TestImportCSV_RejectsWorkbook(t *testing.T) {
	svc, remote, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	before := len(remote.items)

	workbook := "PK\x03\x04\x14\x00\x06\x00[Content_Types].xml"
	_, err := svc.ImportCSV(context.Background(), d, strings.NewReader(workbook))
	assert.ErrorIs(t, err, ErrInvalidCSV)
	assert.ErrorContains(t, err, "export the sheet as CSV")
	assert.Len(t, remote.items, before)
}

func TestImportCSV_LockHeld(t *testing.T) {
	svc, _, _ := setupService(t)
	d := svc.OpenDesk("s1", models.User{})
	svc.locker.(*fakeLocker).held[importLockKey] = true

	_, err := svc.ImportCSV(context.Background(), d, strings.NewReader("name,price,stock\n"))
	assert.ErrorIs(t, err, ErrImportInProgress)
}
