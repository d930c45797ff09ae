// Package reports filters invoice lists and derives sales summaries from them.
package reports

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"invoice-desk/internal/models"

	"github.com/shopspring/decimal"
)

const (
	topItemsLimit = 5
	monthsShown   = 6
)

// SearchInvoices matches term against customer name (case-insensitive),
// bill number and id. status "all" or "" keeps every status.
func SearchInvoices(list []models.Invoice, term, status string) []models.Invoice {
	term = strings.TrimSpace(term)
	lowered := strings.ToLower(term)
	status = strings.ToLower(strings.TrimSpace(status))

	out := make([]models.Invoice, 0, len(list))
	for _, inv := range list {
		if status != "" && status != "all" && strings.ToLower(string(inv.Status)) != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(inv.CustomerName), lowered) &&
			!strings.Contains(inv.BillNumber, term) &&
			!strings.Contains(strconv.FormatInt(inv.ID, 10), term) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// Criteria narrows the invoice set a summary is computed over. Zero values
// do not filter. From and To are inclusive calendar days.
type Criteria struct {
	From   time.Time
	To     time.Time
	Status models.InvoiceStatus
	Min    *decimal.Decimal
	Max    *decimal.Decimal
}

// Apply returns the invoices matching c
func (c Criteria) Apply(list []models.Invoice) []models.Invoice {
	var to time.Time
	if !c.To.IsZero() {
		to = c.To.AddDate(0, 0, 1)
	}

	out := make([]models.Invoice, 0, len(list))
	for _, inv := range list {
		if !c.From.IsZero() && inv.CreatedAt.Before(c.From) {
			continue
		}
		if !to.IsZero() && !inv.CreatedAt.Before(to) {
			continue
		}
		if c.Status != "" && inv.Status != c.Status {
			continue
		}
		if c.Min != nil && inv.Total.LessThan(*c.Min) {
			continue
		}
		if c.Max != nil && inv.Total.GreaterThan(*c.Max) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// ItemSales is the quantity sold of one item
type ItemSales struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

// MonthRevenue is the revenue of one calendar month, keyed YYYY-MM
type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Summary describes a set of invoices. Revenue, average and the item and
// month breakdowns ignore cancelled invoices; InvoiceCount and the status
// counts include them.
type Summary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	InvoiceCount      int             `json:"invoice_count"`
	PaidCount         int             `json:"paid_count"`
	PendingCount      int             `json:"pending_count"`
	CancelledCount    int             `json:"cancelled_count"`
	TopItems          []ItemSales     `json:"top_items"`
	MonthlyRevenue    []MonthRevenue  `json:"monthly_revenue"`
}

// Summarize computes a Summary over list
func Summarize(list []models.Invoice) Summary {
	s := Summary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		InvoiceCount:      len(list),
		TopItems:          []ItemSales{},
		MonthlyRevenue:    []MonthRevenue{},
	}

	active := 0
	quantities := map[string]int{}
	months := map[string]decimal.Decimal{}

	for _, inv := range list {
		switch inv.Status {
		case models.InvoiceStatusPaid:
			s.PaidCount++
		case models.InvoiceStatusPending:
			s.PendingCount++
		case models.InvoiceStatusCancelled:
			s.CancelledCount++
			continue
		}

		active++
		s.TotalRevenue = s.TotalRevenue.Add(inv.Total)

		for _, item := range inv.Items {
			name := item.ItemName
			if name == "" {
				name = "Unknown"
			}
			quantities[name] += item.Quantity
		}

		month := inv.CreatedAt.Format("2006-01")
		months[month] = months[month].Add(inv.Total)
	}

	if active > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(active)))
	}

	for name, qty := range quantities {
		s.TopItems = append(s.TopItems, ItemSales{ItemName: name, Quantity: qty})
	}
	sort.Slice(s.TopItems, func(i, j int) bool {
		if s.TopItems[i].Quantity != s.TopItems[j].Quantity {
			return s.TopItems[i].Quantity > s.TopItems[j].Quantity
		}
		return s.TopItems[i].ItemName < s.TopItems[j].ItemName
	})
	if len(s.TopItems) > topItemsLimit {
		s.TopItems = s.TopItems[:topItemsLimit]
	}

	for month, revenue := range months {
		s.MonthlyRevenue = append(s.MonthlyRevenue, MonthRevenue{Month: month, Revenue: revenue})
	}
	sort.Slice(s.MonthlyRevenue, func(i, j int) bool {
		return s.MonthlyRevenue[i].Month < s.MonthlyRevenue[j].Month
	})
	if len(s.MonthlyRevenue) > monthsShown {
		s.MonthlyRevenue = s.MonthlyRevenue[len(s.MonthlyRevenue)-monthsShown:]
	}

	return s
}
