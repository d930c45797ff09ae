// Package pricing derives invoice totals from cart lines.
package pricing

import (
	"invoice-desk/internal/models"

	"github.com/shopspring/decimal"
)

// Fixed rates applied to every invoice subtotal.
var (
	TaxRate      = decimal.RequireFromString("0.05")
	DiscountRate = decimal.RequireFromString("0.02")
)

// Totals are always derived from a cart snapshot and never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums price x quantity over lines and applies tax and discount.
// No rounding happens here.
func ComputeTotals(lines []models.CartLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line))
	}

	tax := subtotal.Mul(TaxRate)
	discount := subtotal.Mul(DiscountRate)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

// LineTotal returns price x quantity for one line
func LineTotal(line models.CartLine) decimal.Decimal {
	return line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Rounded returns a copy with every amount rounded half away from zero to places.
// Display only; compute on the unrounded values.
func (t Totals) Rounded(places int32) Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(places),
		Tax:      t.Tax.Round(places),
		Discount: t.Discount.Round(places),
		Total:    t.Total.Round(places),
	}
}
