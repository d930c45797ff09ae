package catalog

import (
	"strings"

	"invoice-desk/internal/models"
)

// StockLevel buckets products by how much stock is left
type StockLevel string

const (
	StockAll         StockLevel = "all"
	StockLow         StockLevel = "low"
	StockIn          StockLevel = "in"
	StockWellStocked StockLevel = "well"
)

// ParseStockLevel accepts the short names and the longer UI names
// (lowStock, inStock, wellStocked). Unknown or empty input means all.
func ParseStockLevel(s string) StockLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "lowstock":
		return StockLow
	case "in", "instock":
		return StockIn
	case "well", "wellstocked":
		return StockWellStocked
	default:
		return StockAll
	}
}

// StockFilter keeps products in the given bucket: low is 5 or fewer,
// in is 6 to 9, well is more than 10. A stock of exactly 10 falls in none
// of the narrower buckets.
func StockFilter(items []models.Product, level StockLevel) []models.Product {
	var keep func(stock int) bool
	switch level {
	case StockLow:
		keep = func(stock int) bool { return stock <= 5 }
	case StockIn:
		keep = func(stock int) bool { return stock > 5 && stock < 10 }
	case StockWellStocked:
		keep = func(stock int) bool { return stock > 10 }
	default:
		return items
	}

	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if keep(p.Stock) {
			out = append(out, p)
		}
	}
	return out
}
